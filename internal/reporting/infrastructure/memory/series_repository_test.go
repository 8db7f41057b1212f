package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	reporting "energy-dashboard/internal/reporting/domain"
)

func day(dd int) time.Time {
	return time.Date(2025, 3, dd, 0, 0, 0, 0, time.UTC)
}

func TestReplaceAndListSeries(t *testing.T) {
	repo := NewSeriesRepository()
	ctx := context.Background()

	records := []reporting.DailyRecord{
		{Day: day(12), Quantity: 3},
		{Day: day(10), Quantity: 1},
		{Day: day(11), Quantity: 2},
	}
	if err := repo.ReplaceSeries(ctx, reporting.SeriesFuelDaily, records); err != nil {
		t.Fatalf("replace: %v", err)
	}

	listed, err := repo.ListSeries(ctx, reporting.SeriesFuelDaily, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("listed = %d, want 3", len(listed))
	}
	for i := 1; i < len(listed); i++ {
		if !listed[i-1].Day.Before(listed[i].Day) {
			t.Fatalf("records out of order: %v", listed)
		}
	}
}

func TestListSeriesRangeFilter(t *testing.T) {
	repo := NewSeriesRepository()
	ctx := context.Background()

	records := []reporting.DailyRecord{
		{Day: day(10), Quantity: 1},
		{Day: day(11), Quantity: 2},
		{Day: day(12), Quantity: 3},
	}
	if err := repo.ReplaceSeries(ctx, reporting.SeriesFuelDaily, records); err != nil {
		t.Fatalf("replace: %v", err)
	}

	listed, err := repo.ListSeries(ctx, reporting.SeriesFuelDaily, day(11), time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 || !listed[0].Day.Equal(day(11)) {
		t.Fatalf("listed = %+v, want days 11 and 12", listed)
	}

	listed, err = repo.ListSeries(ctx, reporting.SeriesFuelDaily, time.Time{}, day(10))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || !listed[0].Day.Equal(day(10)) {
		t.Fatalf("listed = %+v, want day 10 only", listed)
	}
}

func TestReplaceSeriesOverwrites(t *testing.T) {
	repo := NewSeriesRepository()
	ctx := context.Background()

	if err := repo.ReplaceSeries(ctx, reporting.SeriesFuelDaily, []reporting.DailyRecord{{Day: day(10), Quantity: 1}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := repo.ReplaceSeries(ctx, reporting.SeriesFuelDaily, []reporting.DailyRecord{{Day: day(20), Quantity: 9}}); err != nil {
		t.Fatalf("replace again: %v", err)
	}

	listed, err := repo.ListSeries(ctx, reporting.SeriesFuelDaily, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || !listed[0].Day.Equal(day(20)) {
		t.Fatalf("listed = %+v, want replacement only", listed)
	}
}

func TestListSeriesNotFound(t *testing.T) {
	repo := NewSeriesRepository()
	_, err := repo.ListSeries(context.Background(), reporting.SeriesID("nope"), time.Time{}, time.Time{})
	if !errors.Is(err, reporting.ErrSeriesNotFound) {
		t.Fatalf("err = %v, want ErrSeriesNotFound", err)
	}
}

func TestSeriesIDsSorted(t *testing.T) {
	repo := NewSeriesRepository()
	ctx := context.Background()
	for _, id := range []reporting.SeriesID{reporting.SeriesSolarDaily, reporting.SeriesFactoryDaily, reporting.SeriesFuelDaily} {
		if err := repo.ReplaceSeries(ctx, id, nil); err != nil {
			t.Fatalf("replace %s: %v", id, err)
		}
	}
	ids, err := repo.SeriesIDs(ctx)
	if err != nil {
		t.Fatalf("ids: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("ids = %v, want 3", ids)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("ids not sorted: %v", ids)
		}
	}
}
