package fusion

import (
	"errors"
	"sort"
	"time"

	consumption "energy-dashboard/internal/consumption/domain"
)

// DefaultNoiseFloor is the floor applied when the caller does not set one.
const DefaultNoiseFloor = 0.1

var (
	// ErrInvalidPreference is returned when the preferred source tag is
	// neither primary nor backup.
	ErrInvalidPreference = errors.New("fusion: invalid preferred source")
)

// Fuser merges two daily delta series for the same physical quantity into
// one series. Which source wins is not a fixed label: the caller measures
// sample density at wiring time (see PreferByDensity) and configures the
// preference accordingly. Hardcoding "primary always wins" against a sparse
// primary undercounts consumption by tens of percent.
type Fuser struct {
	noiseFloor float64
	preferred  Source
}

// NewFuser constructs a Fuser preferring the given source. A negative noise
// floor selects DefaultNoiseFloor; an explicit zero floor keeps every
// positive daily figure.
func NewFuser(noiseFloor float64, preferred Source) (*Fuser, error) {
	if noiseFloor < 0 {
		noiseFloor = DefaultNoiseFloor
	}
	if preferred != SourcePrimary && preferred != SourceBackup {
		return nil, ErrInvalidPreference
	}
	return &Fuser{noiseFloor: noiseFloor, preferred: preferred}, nil
}

// Fuse merges the two daily series over the union of their dates. For each
// date the preferred source wins if it exceeds the noise floor, else the
// other source if it does, else the larger of the two is recorded with
// SourceMax so the audit trail shows both were considered.
func (f *Fuser) Fuse(primary, backup []consumption.DeltaRecord) []FusedDailyValue {
	primaryByDay := indexByDay(primary)
	backupByDay := indexByDay(backup)

	days := make(map[int64]struct{}, len(primaryByDay)+len(backupByDay))
	for day := range primaryByDay {
		days[day] = struct{}{}
	}
	for day := range backupByDay {
		days[day] = struct{}{}
	}

	out := make([]FusedDailyValue, 0, len(days))
	for day := range days {
		primaryVal := primaryByDay[day]
		backupVal := backupByDay[day]

		first, firstTag := primaryVal, SourcePrimary
		second, secondTag := backupVal, SourceBackup
		if f.preferred == SourceBackup {
			first, firstTag, second, secondTag = backupVal, SourceBackup, primaryVal, SourcePrimary
		}

		fused := FusedDailyValue{Date: time.Unix(day, 0).UTC()}
		switch {
		case first > f.noiseFloor:
			fused.Quantity, fused.ChosenSource = first, firstTag
		case second > f.noiseFloor:
			fused.Quantity, fused.ChosenSource = second, secondTag
		default:
			fused.ChosenSource = SourceMax
			fused.Quantity = primaryVal
			if backupVal > primaryVal {
				fused.Quantity = backupVal
			}
		}
		out = append(out, fused)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// PreferByDensity picks the source with more samples in the overlapping
// date range. It returns the preference plus whether the nominal preference
// disagrees with the measurement, so callers can log a misconfiguration
// warning at startup instead of silently undercounting.
func PreferByDensity(nominal Source, primarySamples, backupSamples int) (Source, bool) {
	measured := SourcePrimary
	if backupSamples > primarySamples {
		measured = SourceBackup
	}
	return measured, nominal != measured
}

func indexByDay(records []consumption.DeltaRecord) map[int64]float64 {
	byDay := make(map[int64]float64, len(records))
	for _, record := range records {
		day := time.Date(record.Bucket.Year(), record.Bucket.Month(), record.Bucket.Day(), 0, 0, 0, 0, time.UTC)
		byDay[day.Unix()] += record.Quantity
	}
	return byDay
}
