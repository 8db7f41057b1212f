package solar

import (
	"errors"
	"sort"
	"time"

	readings "energy-dashboard/internal/readings/domain"
)

const defaultMaxGap = time.Hour

// ErrInvalidMaxGap is returned for a negative maximum gap.
var ErrInvalidMaxGap = errors.New("solar: invalid max gap")

// HourEnergy is one hour of integrated energy for a sensor or group.
type HourEnergy struct {
	Hour time.Time
	KWh  float64
}

// DayEnergy is one day of a group's (or member's) output.
type DayEnergy struct {
	Date           time.Time
	KWh            float64
	PeakKW         float64
	AvgKW          float64
	CapacityFactor float64
	Samples        int
}

// Integrator converts irregularly-sampled instantaneous power (kW) into
// energy (kWh) by trapezoidal time-weighted summation. Intervals longer
// than maxGap are sensor silence, not sustained power, and are skipped.
type Integrator struct {
	maxGap time.Duration
}

// NewIntegrator constructs an Integrator. A zero maxGap gets the default of
// one hour.
func NewIntegrator(maxGap time.Duration) (*Integrator, error) {
	if maxGap < 0 {
		return nil, ErrInvalidMaxGap
	}
	if maxGap == 0 {
		maxGap = defaultMaxGap
	}
	return &Integrator{maxGap: maxGap}, nil
}

// IntegrateSensor integrates one sensor's power samples into per-hour
// energy. Each consecutive pair accrues the trapezoid (p0+p1)/2 * dt;
// intervals crossing an hour boundary are split there, with the boundary
// power linearly interpolated, so every hour bucket receives exactly the
// energy produced inside it.
func (in *Integrator) IntegrateSensor(sequence []readings.Reading) []HourEnergy {
	if len(sequence) < 2 {
		return nil
	}
	ordered := make([]readings.Reading, len(sequence))
	copy(ordered, sequence)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].TS.Before(ordered[j].TS) })

	byHour := make(map[int64]float64)
	for i := 1; i < len(ordered); i++ {
		t0, p0 := ordered[i-1].TS, ordered[i-1].Value
		t1, p1 := ordered[i].TS, ordered[i].Value
		gap := t1.Sub(t0)
		if gap <= 0 || gap > in.maxGap {
			continue
		}
		if p0 < 0 {
			p0 = 0
		}
		if p1 < 0 {
			p1 = 0
		}
		accrueInterval(byHour, t0, p0, t1, p1)
	}

	if len(byHour) == 0 {
		return nil
	}
	out := make([]HourEnergy, 0, len(byHour))
	for unix, kwh := range byHour {
		out = append(out, HourEnergy{Hour: time.Unix(unix, 0).UTC(), KWh: kwh})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour.Before(out[j].Hour) })
	return out
}

// accrueInterval splits [t0, t1] at hour boundaries and adds each piece's
// trapezoid to its hour bucket. Boundary power is linearly interpolated
// between the two samples.
func accrueInterval(byHour map[int64]float64, t0 time.Time, p0 float64, t1 time.Time, p1 float64) {
	total := t1.Sub(t0)
	interpolate := func(at time.Time) float64 {
		frac := float64(at.Sub(t0)) / float64(total)
		return p0 + (p1-p0)*frac
	}

	cursor, pCursor := t0, p0
	for cursor.Before(t1) {
		hourEnd := truncateToHour(cursor).Add(time.Hour)
		pieceEnd, pEnd := t1, p1
		if hourEnd.Before(t1) {
			pieceEnd = hourEnd
			pEnd = interpolate(hourEnd)
		}
		dtHours := pieceEnd.Sub(cursor).Hours()
		byHour[truncateToHour(cursor).Unix()] += (pCursor + pEnd) / 2 * dtHours
		cursor, pCursor = pieceEnd, pEnd
	}
}

func truncateToHour(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
