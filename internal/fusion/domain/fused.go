package fusion

import "time"

// Source tags which input supplied a fused day's value.
type Source string

const (
	// SourcePrimary is the nominally primary input.
	SourcePrimary Source = "PRIMARY"
	// SourceBackup is the nominally backup input.
	SourceBackup Source = "BACKUP"
	// SourceMax marks a day where neither input exceeded the noise floor
	// and the larger of the two (possibly zero) was recorded.
	SourceMax Source = "MAX"
)

// FusedDailyValue is one day of the merged series. ChosenSource is retained
// for audit: downstream consumers must be able to see which sensor a number
// came from, not just the number.
type FusedDailyValue struct {
	Date         time.Time
	Quantity     float64
	ChosenSource Source
}
