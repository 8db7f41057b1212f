package reporting

import (
	"context"
	"errors"
	"time"
)

// SeriesID identifies one stored daily series.
type SeriesID string

const (
	SeriesFuelDaily    SeriesID = "fuel.daily"
	SeriesSolarDaily   SeriesID = "solar.daily"
	SeriesFactoryDaily SeriesID = "factory.daily"
)

// DailyRecord is one day of a derived series as exposed to the
// presentation layer. Fields that do not apply to a series are zero: fuel
// records carry Source/UnitPrice/Cost, solar records carry
// PeakKW/AvgKW/CapacityFactor, factory records carry only Quantity.
type DailyRecord struct {
	Day            time.Time
	Quantity       float64
	Source         string
	UnitPrice      float64
	Cost           float64
	PeakKW         float64
	AvgKW          float64
	CapacityFactor float64
}

var (
	// ErrSeriesNotFound is returned when no records exist for a series.
	ErrSeriesNotFound = errors.New("reporting: series not found")
	// ErrEmptySeriesID is returned for an empty series id.
	ErrEmptySeriesID = errors.New("reporting: empty series id")
)

// SeriesRepository persists derived daily series. A pipeline run replaces a
// series wholesale: derived data is always recomputed from the feeds, never
// patched in place.
type SeriesRepository interface {
	ReplaceSeries(ctx context.Context, id SeriesID, records []DailyRecord) error
	ListSeries(ctx context.Context, id SeriesID, from, to time.Time) ([]DailyRecord, error)
	SeriesIDs(ctx context.Context) ([]SeriesID, error)
}
