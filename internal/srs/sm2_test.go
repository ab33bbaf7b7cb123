package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reviewTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestSeed(t *testing.T) {
	t.Parallel()

	s := Seed(reviewTime)
	assert.Equal(t, 1, s.Interval)
	assert.Equal(t, 0, s.Repetitions)
	assert.InDelta(t, 2.5, s.EaseFactor, 0.001)
	assert.Equal(t, reviewTime.AddDate(0, 0, 1), s.NextReview)
	assert.Empty(t, s.History)
}

func TestReviewIntervalProgression(t *testing.T) {
	t.Parallel()

	s := Seed(reviewTime)

	s = Review(s, 4, reviewTime)
	assert.Equal(t, 1, s.Interval, "first successful review")
	assert.Equal(t, 1, s.Repetitions)

	s = Review(s, 4, reviewTime)
	assert.Equal(t, 6, s.Interval, "second successful review")
	assert.Equal(t, 2, s.Repetitions)

	before := s.EaseFactor
	s = Review(s, 4, reviewTime)
	assert.Equal(t, int(float64(6)*before+0.5), s.Interval, "later intervals scale by the ease factor")
	assert.Equal(t, 3, s.Repetitions)
}

func TestReviewFailureResetsButKeepsEase(t *testing.T) {
	t.Parallel()

	s := Seed(reviewTime)
	s = Review(s, 5, reviewTime)
	s = Review(s, 5, reviewTime)
	require.Equal(t, 6, s.Interval)

	easeBefore := s.EaseFactor
	s = Review(s, 1, reviewTime)
	assert.Equal(t, 0, s.Repetitions)
	assert.Equal(t, 1, s.Interval)
	assert.Less(t, s.EaseFactor, easeBefore, "failed reviews still lower the ease factor")
	assert.GreaterOrEqual(t, s.EaseFactor, MinEaseFactor)
}

func TestReviewEaseFactorFloor(t *testing.T) {
	t.Parallel()

	s := Seed(reviewTime)
	for i := 0; i < 20; i++ {
		s = Review(s, 0, reviewTime)
	}
	assert.Equal(t, MinEaseFactor, s.EaseFactor)
}

func TestReviewQualityClamped(t *testing.T) {
	t.Parallel()

	s := Review(Seed(reviewTime), 99, reviewTime)
	require.Len(t, s.History, 1)
	assert.Equal(t, MaxQuality, s.History[0].Quality)

	s = Review(Seed(reviewTime), -3, reviewTime)
	require.Len(t, s.History, 1)
	assert.Equal(t, 0, s.History[0].Quality)
}

func TestReviewHistoryAppends(t *testing.T) {
	t.Parallel()

	s := Seed(reviewTime)
	s = Review(s, 3, reviewTime)
	s = Review(s, 4, reviewTime.AddDate(0, 0, 1))

	require.Len(t, s.History, 2)
	assert.Equal(t, 3, s.History[0].Quality)
	assert.Equal(t, 4, s.History[1].Quality)
	assert.Equal(t, s.Interval, s.History[1].Interval)
	assert.Equal(t, reviewTime.AddDate(0, 0, 1+s.Interval), s.NextReview)
}
