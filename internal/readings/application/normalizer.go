package application

import (
	"errors"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	readings "energy-dashboard/internal/readings/domain"
)

// timestampLayouts are the formats seen across the feed exports. Everything
// is normalized to UTC so zone-aware and zone-naive rows cannot mix
// downstream.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02",
}

// DropCounts tallies rows discarded during normalization, by reason.
// The counts are surfaced to the quality scorer and the dashboard; dropped
// rows are never substituted with zero.
type DropCounts struct {
	BadTimestamp int
	BadValue     int
	Duplicate    int
}

// Total returns the number of rows discarded for any reason.
func (d DropCounts) Total() int { return d.BadTimestamp + d.BadValue + d.Duplicate }

// Result is the outcome of normalizing one feed.
type Result struct {
	BySensor map[string][]readings.Reading
	Dropped  DropCounts
}

// Readings returns the normalized sequence for one sensor, ascending by time.
func (r Result) Readings(sensorID string) []readings.Reading {
	return r.BySensor[sensorID]
}

// Normalizer turns raw feed rows into canonical per-sensor reading
// sequences.
type Normalizer struct {
	logger *log.Logger
}

// NewNormalizer constructs a Normalizer.
func NewNormalizer(logger *log.Logger) (*Normalizer, error) {
	if logger == nil {
		return nil, errors.New("normalizer: nil logger")
	}
	return &Normalizer{logger: logger}, nil
}

// Normalize parses raw rows into per-sensor sequences sorted ascending by
// timestamp. Rows with an unparseable timestamp or a non-finite value are
// dropped and counted. Duplicate (sensor, timestamp) pairs keep the last
// occurrence: the exports are append-only and overlap at file boundaries.
func (n *Normalizer) Normalize(rows []readings.RawRow) Result {
	result := Result{BySensor: make(map[string][]readings.Reading)}

	type key struct {
		sensor string
		ts     time.Time
	}
	latest := make(map[key]float64, len(rows))
	order := make([]key, 0, len(rows))

	for _, row := range rows {
		if row.EntityID == "" {
			result.Dropped.BadValue++
			continue
		}
		ts, ok := parseTimestamp(row.Timestamp)
		if !ok {
			result.Dropped.BadTimestamp++
			continue
		}
		value, ok := parseValue(row.State)
		if !ok {
			result.Dropped.BadValue++
			continue
		}
		k := key{sensor: row.EntityID, ts: ts}
		if _, seen := latest[k]; seen {
			result.Dropped.Duplicate++
		} else {
			order = append(order, k)
		}
		latest[k] = value
	}

	for _, k := range order {
		result.BySensor[k.sensor] = append(result.BySensor[k.sensor], readings.Reading{
			SensorID: k.sensor,
			TS:       k.ts,
			Value:    latest[k],
		})
	}
	for _, sequence := range result.BySensor {
		sort.Slice(sequence, func(i, j int) bool { return sequence[i].TS.Before(sequence[j].TS) })
	}

	if total := result.Dropped.Total(); total > 0 {
		n.logger.Printf("normalize: dropped rows bad_ts=%d bad_value=%d duplicate=%d",
			result.Dropped.BadTimestamp, result.Dropped.BadValue, result.Dropped.Duplicate)
	}
	return result
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	// Home Assistant exports occasionally carry epoch seconds.
	if epoch, err := strconv.ParseFloat(raw, 64); err == nil && epoch > 1e9 && epoch < 1e11 {
		sec, frac := math.Modf(epoch)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	}
	return time.Time{}, false
}

func parseValue(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}
