package consumption

import "time"

// Grain is the bucket resolution of extracted deltas.
type Grain string

const (
	GrainHour Grain = "HOUR"
	GrainDay  Grain = "DAY"
)

// IsValid checks if the grain is one of the supported values.
func (g Grain) IsValid() bool {
	return g == GrainHour || g == GrainDay
}

// Truncate maps a timestamp to its bucket start in UTC.
func (g Grain) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case GrainHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

func timeFromUnix(unix int64) time.Time {
	return time.Unix(unix, 0).UTC()
}

// DeltaRecord is one bucket's consumption attributed to a source sensor.
// Quantity is never negative: negative raw changes are either noise
// (discarded) or resets (segmented around), never real negative consumption.
type DeltaRecord struct {
	Bucket   time.Time
	Grain    Grain
	Quantity float64
	SourceID string
}
