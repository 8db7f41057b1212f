package consumption

import (
	"testing"
	"time"
)

func TestSegmentCounterSplitsAtResets(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	sequence := seq(start, time.Hour, 100, 150, 2, 40, 90, 1, 30)

	segments, err := SegmentCounter(sequence, 50)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	want := []ResetSegment{{Start: 0, End: 1}, {Start: 2, End: 4}, {Start: 5, End: 6}}
	if len(segments) != len(want) {
		t.Fatalf("segments = %d, want %d", len(segments), len(want))
	}
	for i, segment := range segments {
		if segment != want[i] {
			t.Fatalf("segment %d = %+v, want %+v", i, segment, want[i])
		}
	}
}

func TestSegmentCounterNoResets(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	segments, err := SegmentCounter(seq(start, time.Hour, 1, 2, 3), 10)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	if len(segments) != 1 || segments[0] != (ResetSegment{Start: 0, End: 2}) {
		t.Fatalf("segments = %+v, want one full-range segment", segments)
	}
}

func TestSegmentCounterEmpty(t *testing.T) {
	segments, err := SegmentCounter(nil, 10)
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("segments = %+v, want none", segments)
	}
}

func TestSegmentCounterRejectsBadThreshold(t *testing.T) {
	if _, err := SegmentCounter(nil, 0); err != ErrInvalidResetThreshold {
		t.Fatalf("err = %v, want ErrInvalidResetThreshold", err)
	}
}

func TestCountSuspectDrops(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	// Two dips below the threshold magnitude, one genuine reset.
	sequence := seq(start, time.Hour, 100, 98, 99, 97, 10)
	if got := CountSuspectDrops(sequence, 50); got != 2 {
		t.Fatalf("suspects = %d, want 2", got)
	}
}
