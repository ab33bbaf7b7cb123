// Package srs implements the SM-2 spaced-repetition algorithm used to
// schedule flashcard reviews.
package srs

import (
	"math"
	"time"

	"github.com/mlindgren/capsuled/internal/model"
)

const (
	// MinEaseFactor is the SM-2 floor; below this, cards stop getting harder
	MinEaseFactor = 1.3

	defaultEaseFactor = 2.5

	// PassingQuality is the lowest recall rating counted as a successful review
	PassingQuality = 3

	MaxQuality = 5
)

// Seed returns the initial schedule attached to a freshly generated card.
func Seed(now time.Time) model.ReviewSchedule {
	return model.ReviewSchedule{
		Interval:    1,
		Repetitions: 0,
		EaseFactor:  defaultEaseFactor,
		NextReview:  now.AddDate(0, 0, 1),
	}
}

// Review applies one recall rating (0-5) to a schedule and returns the
// updated schedule with the review appended to its history.
func Review(s model.ReviewSchedule, quality int, now time.Time) model.ReviewSchedule {
	if quality < 0 {
		quality = 0
	}
	if quality > MaxQuality {
		quality = MaxQuality
	}

	if s.EaseFactor == 0 {
		s.EaseFactor = defaultEaseFactor
	}

	if quality < PassingQuality {
		// Failed recall: start over, but keep the ease factor
		s.Repetitions = 0
		s.Interval = 1
	} else {
		switch s.Repetitions {
		case 0:
			s.Interval = 1
		case 1:
			s.Interval = 6
		default:
			s.Interval = int(math.Round(float64(s.Interval) * s.EaseFactor))
		}
		s.Repetitions++
	}

	q := float64(quality)
	s.EaseFactor += 0.1 - (5-q)*(0.08+(5-q)*0.02)
	if s.EaseFactor < MinEaseFactor {
		s.EaseFactor = MinEaseFactor
	}

	s.NextReview = now.AddDate(0, 0, s.Interval)
	s.History = append(s.History, model.PerformanceRecord{
		ReviewedAt: now,
		Quality:    quality,
		Interval:   s.Interval,
	})

	return s
}
