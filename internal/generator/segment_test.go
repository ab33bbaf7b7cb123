package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlindgren/capsuled/internal/model"
)

func TestMatchSegment(t *testing.T) {
	t.Parallel()

	segments := []model.TranscriptSegment{
		{Start: 0, End: 15, Text: "today we discuss leader election and voting rounds"},
		{Start: 15, End: 30, Text: "log replication copies entries from leader to follower nodes"},
	}

	t.Run("picks the best overlapping segment", func(t *testing.T) {
		ref := matchSegment("How does log replication copy entries between nodes?", segments)
		require.NotNil(t, ref)
		assert.Equal(t, 15.0, ref.Start)
		assert.Equal(t, 30.0, ref.End)
		assert.Greater(t, ref.Overlap, minSegmentOverlap)
	})

	t.Run("no match below the overlap threshold", func(t *testing.T) {
		assert.Nil(t, matchSegment("completely unrelated culinary techniques involving pastry", segments))
	})

	t.Run("no segments means no attribution", func(t *testing.T) {
		assert.Nil(t, matchSegment("log replication", nil))
	})

	t.Run("only short words means no attribution", func(t *testing.T) {
		assert.Nil(t, matchSegment("a to of it", segments))
	})
}
