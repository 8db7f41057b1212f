package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	reporting "energy-dashboard/internal/reporting/domain"
)

// SeriesRepository is an in-memory repository for demo/testing and for
// deployments without a database.
type SeriesRepository struct {
	mu   sync.RWMutex
	data map[reporting.SeriesID][]reporting.DailyRecord
}

// NewSeriesRepository constructs a repository.
func NewSeriesRepository() *SeriesRepository {
	return &SeriesRepository{data: make(map[reporting.SeriesID][]reporting.DailyRecord)}
}

// ReplaceSeries swaps the stored records for a series.
func (r *SeriesRepository) ReplaceSeries(ctx context.Context, id reporting.SeriesID, records []reporting.DailyRecord) error {
	_ = ctx
	if id == "" {
		return reporting.ErrEmptySeriesID
	}
	copied := make([]reporting.DailyRecord, len(records))
	copy(copied, records)
	sort.Slice(copied, func(i, j int) bool { return copied[i].Day.Before(copied[j].Day) })

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[id] = copied
	return nil
}

// ListSeries returns the records for a series inside [from, to]. Zero
// bounds are open.
func (r *SeriesRepository) ListSeries(ctx context.Context, id reporting.SeriesID, from, to time.Time) ([]reporting.DailyRecord, error) {
	_ = ctx
	if id == "" {
		return nil, reporting.ErrEmptySeriesID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.data[id]
	if !ok {
		return nil, reporting.ErrSeriesNotFound
	}

	out := make([]reporting.DailyRecord, 0, len(stored))
	for _, record := range stored {
		if !from.IsZero() && record.Day.Before(from) {
			continue
		}
		if !to.IsZero() && record.Day.After(to) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

// SeriesIDs lists the stored series.
func (r *SeriesRepository) SeriesIDs(ctx context.Context) ([]reporting.SeriesID, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]reporting.SeriesID, 0, len(r.data))
	for id := range r.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
