package application

import (
	"context"
	"errors"
	"testing"
	"time"

	quality "energy-dashboard/internal/quality/domain"
	reporting "energy-dashboard/internal/reporting/domain"
	memoryrepo "energy-dashboard/internal/reporting/infrastructure/memory"
)

func storeDays(t *testing.T, repo *memoryrepo.SeriesRepository, id reporting.SeriesID, values ...float64) {
	t.Helper()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	records := make([]reporting.DailyRecord, len(values))
	for i, v := range values {
		records[i] = reporting.DailyRecord{Day: start.AddDate(0, 0, i), Quantity: v}
	}
	if err := repo.ReplaceSeries(context.Background(), id, records); err != nil {
		t.Fatalf("store: %v", err)
	}
}

func TestQualityServiceScoresStoredSeries(t *testing.T) {
	repo := memoryrepo.NewSeriesRepository()
	storeDays(t, repo, reporting.SeriesFuelDaily, 10, 11, 10, 12, 11)

	service, err := NewQualityService(repo, quality.NewScorer(3))
	if err != nil {
		t.Fatalf("new quality service: %v", err)
	}

	score, err := service.Score(context.Background(), reporting.SeriesFuelDaily)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.Total != 100 || score.Grade != quality.GradeA {
		t.Fatalf("score = %+v, want a perfect grade A", score)
	}
}

func TestQualityServiceMemoizesByContent(t *testing.T) {
	repo := memoryrepo.NewSeriesRepository()
	storeDays(t, repo, reporting.SeriesFuelDaily, 10, 11, 10, 12, 11)

	service, err := NewQualityService(repo, quality.NewScorer(3))
	if err != nil {
		t.Fatalf("new quality service: %v", err)
	}
	ctx := context.Background()

	first, err := service.Score(ctx, reporting.SeriesFuelDaily)
	if err != nil {
		t.Fatalf("first score: %v", err)
	}
	second, err := service.Score(ctx, reporting.SeriesFuelDaily)
	if err != nil {
		t.Fatalf("second score: %v", err)
	}
	if first != second {
		t.Fatalf("repeated score changed: %+v vs %+v", first, second)
	}

	// Degrade the stored series: the content hash changes, so the cached
	// score must not be served.
	storeDays(t, repo, reporting.SeriesFuelDaily, 10, 11, 900, 12, 11)
	degraded, err := service.Score(ctx, reporting.SeriesFuelDaily)
	if err != nil {
		t.Fatalf("degraded score: %v", err)
	}
	if degraded.Total >= first.Total {
		t.Fatalf("degraded total %v not below %v", degraded.Total, first.Total)
	}
}

func TestQualityServiceExpectedRangePenalizesEdges(t *testing.T) {
	repo := memoryrepo.NewSeriesRepository()
	storeDays(t, repo, reporting.SeriesFuelDaily, 10, 11, 10, 12, 11)

	observed, err := NewQualityService(repo, quality.NewScorer(3))
	if err != nil {
		t.Fatalf("new quality service: %v", err)
	}
	ranged, err := NewQualityService(repo, quality.NewScorer(3), WithExpectedRange(
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	))
	if err != nil {
		t.Fatalf("new quality service: %v", err)
	}
	ctx := context.Background()

	base, err := observed.Score(ctx, reporting.SeriesFuelDaily)
	if err != nil {
		t.Fatalf("observed score: %v", err)
	}
	if base.Total != 100 {
		t.Fatalf("observed total = %v, want 100", base.Total)
	}

	// Only 5 of the 10 expected days landed: the missing trailing days
	// must lower completeness even though the stored span itself is dense.
	penalized, err := ranged.Score(ctx, reporting.SeriesFuelDaily)
	if err != nil {
		t.Fatalf("ranged score: %v", err)
	}
	if penalized.Completeness >= base.Completeness {
		t.Fatalf("completeness %v not below %v", penalized.Completeness, base.Completeness)
	}
	if penalized.Total >= base.Total {
		t.Fatalf("total %v not below %v", penalized.Total, base.Total)
	}
}

func TestQualityServiceMeanEstimate(t *testing.T) {
	repo := memoryrepo.NewSeriesRepository()
	storeDays(t, repo, reporting.SeriesFuelDaily, 10, 11, 10, 12, 11)

	service, err := NewQualityService(repo, quality.NewScorer(3))
	if err != nil {
		t.Fatalf("new quality service: %v", err)
	}

	estimate, err := service.MeanEstimate(context.Background(), reporting.SeriesFuelDaily)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if estimate.Mean != 10.8 {
		t.Fatalf("mean = %v, want 10.8", estimate.Mean)
	}
	if !estimate.HasInterval || estimate.Lower >= estimate.Mean || estimate.Upper <= estimate.Mean {
		t.Fatalf("estimate = %+v, want an interval bracketing the mean", estimate)
	}
}

func TestQualityServiceMeanEstimateZeroVariance(t *testing.T) {
	repo := memoryrepo.NewSeriesRepository()
	storeDays(t, repo, reporting.SeriesFuelDaily, 7, 7, 7)

	service, err := NewQualityService(repo, quality.NewScorer(3))
	if err != nil {
		t.Fatalf("new quality service: %v", err)
	}

	estimate, err := service.MeanEstimate(context.Background(), reporting.SeriesFuelDaily)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if estimate.HasInterval {
		t.Fatalf("estimate = %+v, want no interval on a flat series", estimate)
	}
	if estimate.Mean != 7 || estimate.Lower != 7 || estimate.Upper != 7 {
		t.Fatalf("estimate = %+v, want the point estimate on all three", estimate)
	}
}

func TestQualityServiceMeanEstimateUnknownSeries(t *testing.T) {
	service, err := NewQualityService(memoryrepo.NewSeriesRepository(), quality.NewScorer(3))
	if err != nil {
		t.Fatalf("new quality service: %v", err)
	}
	if _, err := service.MeanEstimate(context.Background(), reporting.SeriesID("nope")); !errors.Is(err, reporting.ErrSeriesNotFound) {
		t.Fatalf("err = %v, want ErrSeriesNotFound", err)
	}
}

func TestQualityServiceInsufficientData(t *testing.T) {
	repo := memoryrepo.NewSeriesRepository()
	storeDays(t, repo, reporting.SeriesFuelDaily, 10)

	service, err := NewQualityService(repo, quality.NewScorer(3))
	if err != nil {
		t.Fatalf("new quality service: %v", err)
	}
	if _, err := service.Score(context.Background(), reporting.SeriesFuelDaily); !errors.Is(err, quality.ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestQualityServiceUnknownSeries(t *testing.T) {
	service, err := NewQualityService(memoryrepo.NewSeriesRepository(), quality.NewScorer(3))
	if err != nil {
		t.Fatalf("new quality service: %v", err)
	}
	if _, err := service.Score(context.Background(), reporting.SeriesID("nope")); !errors.Is(err, reporting.ErrSeriesNotFound) {
		t.Fatalf("err = %v, want ErrSeriesNotFound", err)
	}
}
