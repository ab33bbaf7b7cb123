package generator

import "github.com/mlindgren/capsuled/internal/model"

// minSegmentOverlap is the overlap ratio below which no attribution is made
const minSegmentOverlap = 0.15

// matchSegment attributes generated text to the transcript segment sharing
// the most significant words with it. Words of more than three characters
// count; the segment with the highest overlap ratio wins, and nothing is
// attributed when the best ratio does not exceed the threshold.
func matchSegment(text string, segments []model.TranscriptSegment) *model.SegmentRef {
	if len(segments) == 0 {
		return nil
	}

	words := wordSet(text)
	if len(words) == 0 {
		return nil
	}

	var (
		best      *model.TranscriptSegment
		bestRatio float64
	)
	for i := range segments {
		ratio := overlapRatio(words, wordSet(segments[i].Text))
		if ratio > bestRatio {
			bestRatio = ratio
			best = &segments[i]
		}
	}

	if best == nil || bestRatio <= minSegmentOverlap {
		return nil
	}

	return &model.SegmentRef{
		Start:       best.Start,
		End:         best.End,
		MatchedText: best.Text,
		Overlap:     bestRatio,
	}
}
