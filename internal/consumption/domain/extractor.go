package consumption

import (
	"sort"

	readings "energy-dashboard/internal/readings/domain"
)

const defaultSmoothingWindow = 20

// Extractor turns one sensor's reading sequence into bucketed consumption
// deltas according to the sensor's configured kind.
type Extractor struct {
	spec  readings.SensorSpec
	grain Grain
}

// NewExtractor constructs an Extractor for one sensor. Instantaneous power
// sensors are rejected: they are integrated, not differenced.
func NewExtractor(spec readings.SensorSpec, grain Grain) (*Extractor, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if spec.Kind == readings.KindInstantaneousPower {
		return nil, ErrWrongSensorKind
	}
	if !grain.IsValid() {
		return nil, ErrInvalidGrain
	}
	if spec.Kind == readings.KindCumulativeCounter && spec.ResetThreshold <= 0 {
		return nil, ErrInvalidResetThreshold
	}
	if spec.SmoothingWindow <= 0 {
		spec.SmoothingWindow = defaultSmoothingWindow
	}
	return &Extractor{spec: spec, grain: grain}, nil
}

// Extract dispatches on the configured sensor kind.
func (e *Extractor) Extract(sequence []readings.Reading) ([]DeltaRecord, error) {
	switch e.spec.Kind {
	case readings.KindCumulativeCounter:
		return e.extractCounter(sequence)
	case readings.KindGaugeLevel:
		return e.extractGauge(sequence)
	default:
		return nil, ErrWrongSensorKind
	}
}

// extractCounter sums positive increments between consecutive readings,
// within reset segments only. Each increment is attributed to the bucket of
// the later reading.
func (e *Extractor) extractCounter(sequence []readings.Reading) ([]DeltaRecord, error) {
	segments, err := SegmentCounter(sequence, e.spec.ResetThreshold)
	if err != nil {
		return nil, err
	}

	byBucket := make(map[int64]float64)
	for _, segment := range segments {
		for i := segment.Start + 1; i <= segment.End; i++ {
			diff := sequence[i].Value - sequence[i-1].Value
			if diff <= 0 {
				continue
			}
			bucket := e.grain.Truncate(sequence[i].TS)
			byBucket[bucket.Unix()] += diff
		}
	}
	return e.collect(byBucket), nil
}

// extractGauge reads consumption as level drops. The sequence is smoothed
// with a rolling median to suppress jitter; after differencing, only drops
// inside the configured plausible band count, refills (increases) are
// ignored entirely, and a bucket's summed total is capped at the daily
// ceiling because a physically implausible total indicates sensor
// corruption, not real consumption.
func (e *Extractor) extractGauge(sequence []readings.Reading) ([]DeltaRecord, error) {
	if len(sequence) < 2 {
		return nil, nil
	}

	values := make([]float64, len(sequence))
	for i, r := range sequence {
		values[i] = r.Value
	}
	smoothed := rollingMedian(values, e.spec.SmoothingWindow)

	byBucket := make(map[int64]float64)
	for i := 1; i < len(smoothed); i++ {
		drop := smoothed[i-1] - smoothed[i]
		if drop <= 0 {
			continue
		}
		if e.spec.MinDrop > 0 && drop < e.spec.MinDrop {
			continue
		}
		if e.spec.MaxDrop > 0 && drop > e.spec.MaxDrop {
			continue
		}
		bucket := e.grain.Truncate(sequence[i].TS)
		byBucket[bucket.Unix()] += drop
	}

	if e.spec.DailyCap > 0 {
		for bucket, total := range byBucket {
			if total > e.spec.DailyCap {
				byBucket[bucket] = e.spec.DailyCap
			}
		}
	}
	return e.collect(byBucket), nil
}

// collect materializes the bucket map as an ascending slice. Buckets with
// no deltas are absent, never zero: callers must be able to distinguish "no
// data" from "zero observed".
func (e *Extractor) collect(byBucket map[int64]float64) []DeltaRecord {
	if len(byBucket) == 0 {
		return nil
	}
	out := make([]DeltaRecord, 0, len(byBucket))
	for unix, quantity := range byBucket {
		if quantity <= 0 {
			continue
		}
		out = append(out, DeltaRecord{
			Bucket:   timeFromUnix(unix),
			Grain:    e.grain,
			Quantity: quantity,
			SourceID: e.spec.ID,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.Before(out[j].Bucket) })
	return out
}

// rollingMedian applies a centered median filter of the given window width.
// Edges use the shrunken window that fits; a window of 1 or a short input
// returns the values unchanged.
func rollingMedian(values []float64, window int) []float64 {
	if window <= 1 || len(values) < 3 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}

	half := window / 2
	out := make([]float64, len(values))
	scratch := make([]float64, 0, window)
	for i := range values {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi >= len(values) {
			hi = len(values) - 1
		}
		scratch = append(scratch[:0], values[lo:hi+1]...)
		sort.Float64s(scratch)
		mid := len(scratch) / 2
		if len(scratch)%2 == 1 {
			out[i] = scratch[mid]
		} else {
			out[i] = (scratch[mid-1] + scratch[mid]) / 2
		}
	}
	return out
}
