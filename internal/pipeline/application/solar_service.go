package application

import (
	"context"
	"errors"
	"log"
	"time"

	"energy-dashboard/internal/observability/metrics"
	normalize "energy-dashboard/internal/readings/application"
	readings "energy-dashboard/internal/readings/domain"
	reporting "energy-dashboard/internal/reporting/domain"
	solar "energy-dashboard/internal/solar/domain"
)

// SolarService integrates inverter power feeds into group and per-member
// daily energy series. Group membership is dated configuration: each
// reading is attributed to the group whose date range covers it, and a
// reading with no covering group is a fatal misconfiguration.
type SolarService struct {
	cfg        SolarConfig
	groups     []solar.InverterGroup
	loader     FeedLoader
	normalizer *normalize.Normalizer
	integrator *solar.Integrator
	repo       reporting.SeriesRepository
	logger     *log.Logger
}

// NewSolarService constructs the service.
func NewSolarService(cfg SolarConfig, groups []solar.InverterGroup, loader FeedLoader, normalizer *normalize.Normalizer, repo reporting.SeriesRepository, logger *log.Logger) (*SolarService, error) {
	if len(groups) == 0 {
		return nil, solar.ErrNoGroupMembers
	}
	if loader == nil {
		return nil, errors.New("solar service: nil loader")
	}
	if normalizer == nil {
		return nil, errors.New("solar service: nil normalizer")
	}
	if repo == nil {
		return nil, errors.New("solar service: nil repository")
	}
	if logger == nil {
		return nil, errors.New("solar service: nil logger")
	}
	integrator, err := solar.NewIntegrator(time.Duration(cfg.MaxGap))
	if err != nil {
		return nil, err
	}
	return &SolarService{
		cfg:        cfg,
		groups:     groups,
		loader:     loader,
		normalizer: normalizer,
		integrator: integrator,
		repo:       repo,
		logger:     logger,
	}, nil
}

// Run executes one pipeline pass and replaces the stored solar series.
func (s *SolarService) Run(ctx context.Context) error {
	started := time.Now()
	err := s.run(ctx)
	metrics.ObservePipelineRun("solar", err, time.Since(started))
	return err
}

func (s *SolarService) run(ctx context.Context) error {
	rows, err := LoadFeeds(s.loader, s.cfg.Feeds)
	if err != nil {
		return err
	}
	result := s.normalizer.Normalize(rows)
	metrics.AddRowsDropped("solar", "bad_timestamp", result.Dropped.BadTimestamp)
	metrics.AddRowsDropped("solar", "bad_value", result.Dropped.BadValue)
	metrics.AddRowsDropped("solar", "duplicate", result.Dropped.Duplicate)

	// Partition each sensor's readings by the group covering each date.
	byGroup := make(map[string]map[string][]readings.Reading, len(s.groups))
	for sensorID, sequence := range result.BySensor {
		for _, reading := range sequence {
			group, err := solar.GroupForDate(s.groups, reading.TS)
			if err != nil {
				return err
			}
			if !contains(group.Members, sensorID) {
				continue
			}
			if byGroup[group.Name] == nil {
				byGroup[group.Name] = make(map[string][]readings.Reading)
			}
			byGroup[group.Name][sensorID] = append(byGroup[group.Name][sensorID], reading)
		}
	}

	var systemDaily []reporting.DailyRecord
	memberDaily := make(map[string][]reporting.DailyRecord)
	for _, group := range s.groups {
		sequences := byGroup[group.Name]
		if len(sequences) == 0 {
			continue
		}
		groupResult, err := s.integrator.IntegrateGroup(group, sequences)
		if err != nil {
			return err
		}
		for _, day := range groupResult.Daily {
			systemDaily = append(systemDaily, solarRecord(day))
		}
		for member, days := range groupResult.ByMember {
			for _, day := range days {
				memberDaily[member] = append(memberDaily[member], solarRecord(day))
			}
		}
		s.logger.Printf("solar: group=%s days=%d members=%d", group.Name, len(groupResult.Daily), len(sequences))
	}
	if len(systemDaily) == 0 {
		return errors.New("solar service: no integrated days")
	}

	if err := s.repo.ReplaceSeries(ctx, reporting.SeriesSolarDaily, systemDaily); err != nil {
		return err
	}
	for member, records := range memberDaily {
		id := reporting.SeriesID(string(reporting.SeriesSolarDaily) + "." + member)
		if err := s.repo.ReplaceSeries(ctx, id, records); err != nil {
			return err
		}
	}
	return nil
}

func solarRecord(day solar.DayEnergy) reporting.DailyRecord {
	return reporting.DailyRecord{
		Day:            day.Date,
		Quantity:       day.KWh,
		PeakKW:         day.PeakKW,
		AvgKW:          day.AvgKW,
		CapacityFactor: day.CapacityFactor,
	}
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
