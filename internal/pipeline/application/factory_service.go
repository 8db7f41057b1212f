package application

import (
	"context"
	"errors"
	"log"
	"time"

	consumption "energy-dashboard/internal/consumption/domain"
	"energy-dashboard/internal/observability/metrics"
	normalize "energy-dashboard/internal/readings/application"
	reporting "energy-dashboard/internal/reporting/domain"
)

// FactoryService runs the factory electricity-meter pipeline: the meter is
// a cumulative kWh counter subject to periodic resets, so the sequence is
// segmented before differencing.
type FactoryService struct {
	cfg        FactoryConfig
	loader     FeedLoader
	normalizer *normalize.Normalizer
	repo       reporting.SeriesRepository
	logger     *log.Logger
}

// NewFactoryService constructs the service.
func NewFactoryService(cfg FactoryConfig, loader FeedLoader, normalizer *normalize.Normalizer, repo reporting.SeriesRepository, logger *log.Logger) (*FactoryService, error) {
	if loader == nil {
		return nil, errors.New("factory service: nil loader")
	}
	if normalizer == nil {
		return nil, errors.New("factory service: nil normalizer")
	}
	if repo == nil {
		return nil, errors.New("factory service: nil repository")
	}
	if logger == nil {
		return nil, errors.New("factory service: nil logger")
	}
	return &FactoryService{
		cfg:        cfg,
		loader:     loader,
		normalizer: normalizer,
		repo:       repo,
		logger:     logger,
	}, nil
}

// Run executes one pipeline pass and replaces the stored factory series.
func (s *FactoryService) Run(ctx context.Context) error {
	started := time.Now()
	err := s.run(ctx)
	metrics.ObservePipelineRun("factory", err, time.Since(started))
	return err
}

func (s *FactoryService) run(ctx context.Context) error {
	rows, err := LoadFeeds(s.loader, s.cfg.Feeds)
	if err != nil {
		return err
	}
	result := s.normalizer.Normalize(rows)
	metrics.AddRowsDropped("factory", "bad_timestamp", result.Dropped.BadTimestamp)
	metrics.AddRowsDropped("factory", "bad_value", result.Dropped.BadValue)
	metrics.AddRowsDropped("factory", "duplicate", result.Dropped.Duplicate)

	sequence := result.Readings(s.cfg.Sensor.ID)
	if len(sequence) == 0 {
		return errors.New("factory service: no readings for configured meter")
	}

	if suspects := consumption.CountSuspectDrops(sequence, s.cfg.Sensor.ResetThreshold); suspects > len(sequence)/10 {
		s.logger.Printf("factory: meter %s decreases %d times below its reset threshold; check its configured kind",
			s.cfg.Sensor.ID, suspects)
	}

	extractor, err := consumption.NewExtractor(s.cfg.Sensor.Spec(), consumption.GrainDay)
	if err != nil {
		return err
	}
	deltas, err := extractor.Extract(sequence)
	if err != nil {
		return err
	}
	if len(deltas) == 0 {
		return errors.New("factory service: no consumption days")
	}

	records := make([]reporting.DailyRecord, 0, len(deltas))
	for _, delta := range deltas {
		records = append(records, reporting.DailyRecord{Day: delta.Bucket, Quantity: delta.Quantity})
	}
	if err := s.repo.ReplaceSeries(ctx, reporting.SeriesFactoryDaily, records); err != nil {
		return err
	}
	s.logger.Printf("factory: stored %d days dropped_rows=%d", len(records), result.Dropped.Total())
	return nil
}
