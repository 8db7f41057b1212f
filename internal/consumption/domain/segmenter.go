package consumption

import (
	readings "energy-dashboard/internal/readings/domain"
)

// ResetSegment is a half-open index range [Start, End] (inclusive) over a
// reading sequence within which a counter never reset.
type ResetSegment struct {
	Start int
	End   int
}

// SegmentCounter splits a cumulative counter sequence at resets. A reset is
// declared whenever a consecutive pair drops by more than threshold, an
// absolute magnitude tuned per sensor family. The returned segments
// partition the input with no gaps or overlaps; an empty input yields no
// segments.
func SegmentCounter(sequence []readings.Reading, threshold float64) ([]ResetSegment, error) {
	if threshold <= 0 {
		return nil, ErrInvalidResetThreshold
	}
	if len(sequence) == 0 {
		return nil, nil
	}

	segments := make([]ResetSegment, 0, 1)
	start := 0
	for i := 1; i < len(sequence); i++ {
		if sequence[i].Value-sequence[i-1].Value < -threshold {
			segments = append(segments, ResetSegment{Start: start, End: i - 1})
			start = i
		}
	}
	segments = append(segments, ResetSegment{Start: start, End: len(sequence) - 1})
	return segments, nil
}

// CountSuspectDrops counts consecutive decreases that are too small to be a
// declared reset. A counter that frequently decreases below its reset
// threshold is likely a misclassified gauge; callers surface this as a
// warning rather than proceeding silently.
func CountSuspectDrops(sequence []readings.Reading, threshold float64) int {
	suspects := 0
	for i := 1; i < len(sequence); i++ {
		diff := sequence[i].Value - sequence[i-1].Value
		if diff < 0 && diff >= -threshold {
			suspects++
		}
	}
	return suspects
}
