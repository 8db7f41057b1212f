package application

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	consumption "energy-dashboard/internal/consumption/domain"
	fusion "energy-dashboard/internal/fusion/domain"
	"energy-dashboard/internal/observability/metrics"
	pricing "energy-dashboard/internal/pricing/domain"
	normalize "energy-dashboard/internal/readings/application"
	reporting "energy-dashboard/internal/reporting/domain"
)

// FuelService runs the dual-source fuel pipeline: normalize both fuel
// sensors, extract deltas per kind, fuse by measured density, price the
// fused series from the purchase ledger, store the result.
type FuelService struct {
	cfg        FuelConfig
	loader     FeedLoader
	normalizer *normalize.Normalizer
	ledger     *pricing.Ledger
	repo       reporting.SeriesRepository
	logger     *log.Logger
}

// NewFuelService constructs the service.
func NewFuelService(cfg FuelConfig, loader FeedLoader, normalizer *normalize.Normalizer, ledger *pricing.Ledger, repo reporting.SeriesRepository, logger *log.Logger) (*FuelService, error) {
	if loader == nil {
		return nil, errors.New("fuel service: nil loader")
	}
	if normalizer == nil {
		return nil, errors.New("fuel service: nil normalizer")
	}
	if ledger == nil {
		return nil, pricing.ErrNilLedger
	}
	if repo == nil {
		return nil, errors.New("fuel service: nil repository")
	}
	if logger == nil {
		return nil, errors.New("fuel service: nil logger")
	}
	return &FuelService{
		cfg:        cfg,
		loader:     loader,
		normalizer: normalizer,
		ledger:     ledger,
		repo:       repo,
		logger:     logger,
	}, nil
}

// Run executes one pipeline pass and replaces the stored fuel series.
func (s *FuelService) Run(ctx context.Context) error {
	started := time.Now()
	err := s.run(ctx)
	metrics.ObservePipelineRun("fuel", err, time.Since(started))
	return err
}

func (s *FuelService) run(ctx context.Context) error {
	rows, err := LoadFeeds(s.loader, s.cfg.Feeds)
	if err != nil {
		return err
	}
	result := s.normalizer.Normalize(rows)
	metrics.AddRowsDropped("fuel", "bad_timestamp", result.Dropped.BadTimestamp)
	metrics.AddRowsDropped("fuel", "bad_value", result.Dropped.BadValue)
	metrics.AddRowsDropped("fuel", "duplicate", result.Dropped.Duplicate)

	primarySeq := result.Readings(s.cfg.Primary.ID)
	backupSeq := result.Readings(s.cfg.Backup.ID)

	primaryExtractor, err := consumption.NewExtractor(s.cfg.Primary.Spec(), consumption.GrainDay)
	if err != nil {
		return err
	}
	backupExtractor, err := consumption.NewExtractor(s.cfg.Backup.Spec(), consumption.GrainDay)
	if err != nil {
		return err
	}

	if suspects := consumption.CountSuspectDrops(primarySeq, s.cfg.Primary.ResetThreshold); suspects > len(primarySeq)/10 {
		s.logger.Printf("fuel: sensor %s decreases %d times below its reset threshold; check its configured kind",
			s.cfg.Primary.ID, suspects)
	}

	primaryDeltas, err := primaryExtractor.Extract(primarySeq)
	if err != nil {
		return err
	}
	backupDeltas, err := backupExtractor.Extract(backupSeq)
	if err != nil {
		return err
	}

	preferred := s.resolvePreference(len(primarySeq), len(backupSeq))
	noiseFloor := -1.0
	if s.cfg.NoiseFloor != nil {
		noiseFloor = *s.cfg.NoiseFloor
	}
	fuser, err := fusion.NewFuser(noiseFloor, preferred)
	if err != nil {
		return err
	}
	fused := fuser.Fuse(primaryDeltas, backupDeltas)
	if len(fused) == 0 {
		return errors.New("fuel service: no fused days")
	}

	consumptionDays := make([]pricing.DatedQuantity, 0, len(fused))
	for _, day := range fused {
		metrics.IncFusionSource(string(day.ChosenSource))
		if day.Quantity <= 0 {
			continue
		}
		consumptionDays = append(consumptionDays, pricing.DatedQuantity{Date: day.Date, Quantity: day.Quantity})
	}

	attributor, err := pricing.NewAttributor(s.ledger, pricing.Mode(s.cfg.PricingMode))
	if err != nil {
		return err
	}
	costs := attributor.Attribute(consumptionDays)
	costByDay := make(map[int64]pricing.DailyCostRecord, len(costs))
	for _, cost := range costs {
		costByDay[cost.Date.Unix()] = cost
	}

	records := make([]reporting.DailyRecord, 0, len(fused))
	for _, day := range fused {
		record := reporting.DailyRecord{
			Day:      day.Date,
			Quantity: day.Quantity,
			Source:   string(day.ChosenSource),
		}
		if cost, ok := costByDay[day.Date.Unix()]; ok {
			record.UnitPrice = cost.UnitPrice
			record.Cost = cost.Cost
		}
		records = append(records, record)
	}

	if err := s.repo.ReplaceSeries(ctx, reporting.SeriesFuelDaily, records); err != nil {
		return err
	}
	s.logger.Printf("fuel: stored %d days preferred=%s dropped_rows=%d",
		len(records), preferred, result.Dropped.Total())
	return nil
}

// resolvePreference derives the fusion preference from measured sample
// density, overriding the configured nominal preference with a warning when
// the two disagree. Pointing precedence at the sparser source silently
// undercounts consumption, so the measurement always wins.
func (s *FuelService) resolvePreference(primarySamples, backupSamples int) fusion.Source {
	nominal := fusion.Source(strings.ToUpper(s.cfg.Preferred))
	if nominal != fusion.SourcePrimary && nominal != fusion.SourceBackup {
		nominal = fusion.SourcePrimary
	}
	measured, mismatch := fusion.PreferByDensity(nominal, primarySamples, backupSamples)
	if mismatch {
		s.logger.Printf("fuel: configured preference %s contradicts measured density (primary=%d backup=%d samples); using %s",
			nominal, primarySamples, backupSamples, measured)
	}
	return measured
}
