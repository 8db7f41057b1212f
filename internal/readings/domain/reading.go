package readings

import "time"

// RawRow is one row of a feed export before normalization.
type RawRow struct {
	EntityID  string
	State     string
	Timestamp string
}

// Reading is a normalized, timestamped scalar value for one sensor.
type Reading struct {
	SensorID string
	TS       time.Time
	Value    float64
}

// SensorKind decides which delta rule applies to a sensor's readings.
// It is mandatory configuration: a misclassified sensor produces silently
// wrong output, not an error, so the kind is never inferred or defaulted.
type SensorKind string

const (
	// KindCumulativeCounter only increases between resets; consumption is
	// the sum of positive increments within a reset segment.
	KindCumulativeCounter SensorKind = "CUMULATIVE_COUNTER"
	// KindGaugeLevel reports a current quantity (tank level); consumption
	// is the sum of level drops, refills are ignored.
	KindGaugeLevel SensorKind = "GAUGE_LEVEL"
	// KindInstantaneousPower reports kW and is integrated over time, never
	// differenced.
	KindInstantaneousPower SensorKind = "INSTANTANEOUS_POWER"
)

// IsValid checks if the kind is one of the supported values.
func (k SensorKind) IsValid() bool {
	switch k {
	case KindCumulativeCounter, KindGaugeLevel, KindInstantaneousPower:
		return true
	default:
		return false
	}
}

// SensorSpec is the per-sensor configuration the pipeline needs before it
// will touch a sensor's data.
type SensorSpec struct {
	ID   string
	Kind SensorKind

	// ResetThreshold is the absolute drop magnitude that declares a counter
	// reset. Counters of different scale need different sensitivity, so
	// this is per sensor, never global.
	ResetThreshold float64

	// Gauge parameters. SmoothingWindow is the rolling-median width applied
	// before differencing; drops outside (MinDrop, MaxDrop) per sample are
	// discarded; DailyCap bounds one bucket's summed consumption.
	SmoothingWindow int
	MinDrop         float64
	MaxDrop         float64
	DailyCap        float64
}
