package application

import (
	"context"
	"errors"
	"io"
	"log"
	"strconv"
	"testing"
	"time"

	pricing "energy-dashboard/internal/pricing/domain"
	normalize "energy-dashboard/internal/readings/application"
	readings "energy-dashboard/internal/readings/domain"
	reporting "energy-dashboard/internal/reporting/domain"
	memoryrepo "energy-dashboard/internal/reporting/infrastructure/memory"
	solar "energy-dashboard/internal/solar/domain"
)

type stubFeedLoader struct {
	rowsByPath map[string][]readings.RawRow
}

func (s stubFeedLoader) LoadFile(path string) ([]readings.RawRow, error) {
	rows, ok := s.rowsByPath[path]
	if !ok {
		return nil, errors.New("stub: unknown feed " + path)
	}
	return rows, nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testNormalizer(t *testing.T) *normalize.Normalizer {
	t.Helper()
	normalizer, err := normalize.NewNormalizer(testLogger())
	if err != nil {
		t.Fatalf("new normalizer: %v", err)
	}
	return normalizer
}

func row(sensor string, ts string, value string) readings.RawRow {
	return readings.RawRow{EntityID: sensor, State: value, Timestamp: ts}
}

func TestFuelServiceEndToEnd(t *testing.T) {
	loader := stubFeedLoader{rowsByPath: map[string][]readings.RawRow{
		"fuel.csv": {
			// Counter climbs 10 over the day; gauge is flat and sparse.
			row("sensor.generator_fuel_consumed", "2025-03-10T08:00:00Z", "100"),
			row("sensor.generator_fuel_consumed", "2025-03-10T12:00:00Z", "106"),
			row("sensor.generator_fuel_consumed", "2025-03-10T18:00:00Z", "110"),
			row("sensor.generator_fuel_level", "2025-03-10T08:00:00Z", "500"),
		},
	}}
	ledger, err := pricing.NewLedger([]pricing.PurchaseRecord{
		{Date: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), Volume: 1000, TotalCost: 20000},
	})
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}

	cfg := FuelConfig{
		Primary: SensorConfig{ID: "sensor.generator_fuel_consumed", Kind: "cumulative_counter", ResetThreshold: 50},
		Backup:  SensorConfig{ID: "sensor.generator_fuel_level", Kind: "gauge_level", SmoothingWindow: 1},
		Feeds:   []string{"fuel.csv"},
	}
	repo := memoryrepo.NewSeriesRepository()
	service, err := NewFuelService(cfg, loader, testNormalizer(t), ledger, repo, testLogger())
	if err != nil {
		t.Fatalf("new fuel service: %v", err)
	}

	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	records, err := repo.ListSeries(context.Background(), reporting.SeriesFuelDaily, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	got := records[0]
	if got.Quantity != 10 {
		t.Fatalf("quantity = %v, want 10", got.Quantity)
	}
	if got.Source != "PRIMARY" {
		t.Fatalf("source = %s, want PRIMARY", got.Source)
	}
	if got.UnitPrice != 20 || got.Cost != 200 {
		t.Fatalf("pricing = %v / %v, want 20 / 200", got.UnitPrice, got.Cost)
	}
}

func TestFuelServiceDenserBackupWins(t *testing.T) {
	// The gauge has far more samples than the counter: measured density must
	// override the nominal primary preference.
	gaugeRows := []readings.RawRow{
		row("sensor.generator_fuel_consumed", "2025-03-10T08:00:00Z", "100"),
	}
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	level := 500.0
	for i := 0; i < 20; i++ {
		gaugeRows = append(gaugeRows, row("sensor.generator_fuel_level",
			base.Add(time.Duration(i)*30*time.Minute).Format(time.RFC3339), formatLevel(level)))
		level -= 2
	}
	loader := stubFeedLoader{rowsByPath: map[string][]readings.RawRow{"fuel.csv": gaugeRows}}

	ledger, err := pricing.NewLedger([]pricing.PurchaseRecord{
		{Date: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), Volume: 100, TotalCost: 2000},
	})
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	cfg := FuelConfig{
		Primary:   SensorConfig{ID: "sensor.generator_fuel_consumed", Kind: "cumulative_counter", ResetThreshold: 50},
		Backup:    SensorConfig{ID: "sensor.generator_fuel_level", Kind: "gauge_level", SmoothingWindow: 1},
		Feeds:     []string{"fuel.csv"},
		Preferred: "primary",
	}
	repo := memoryrepo.NewSeriesRepository()
	service, err := NewFuelService(cfg, loader, testNormalizer(t), ledger, repo, testLogger())
	if err != nil {
		t.Fatalf("new fuel service: %v", err)
	}
	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	records, err := repo.ListSeries(context.Background(), reporting.SeriesFuelDaily, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if records[0].Source != "BACKUP" {
		t.Fatalf("source = %s, want BACKUP after density override", records[0].Source)
	}
	if records[0].Quantity != 38 {
		t.Fatalf("quantity = %v, want 38 litres of level drops", records[0].Quantity)
	}
}

func TestSolarServiceStoresGroupAndMembers(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	var rows []readings.RawRow
	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * 30 * time.Minute).Format(time.RFC3339)
		rows = append(rows, row("sensor.inv1", ts, "2"), row("sensor.inv2", ts, "3"))
	}
	loader := stubFeedLoader{rowsByPath: map[string][]readings.RawRow{"solar.csv": rows}}

	groups := []solar.InverterGroup{{Name: "array", Members: []string{"sensor.inv1", "sensor.inv2"}}}
	repo := memoryrepo.NewSeriesRepository()
	service, err := NewSolarService(SolarConfig{Feeds: []string{"solar.csv"}}, groups, loader, testNormalizer(t), repo, testLogger())
	if err != nil {
		t.Fatalf("new solar service: %v", err)
	}
	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	system, err := repo.ListSeries(context.Background(), reporting.SeriesSolarDaily, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list system: %v", err)
	}
	if len(system) != 1 {
		t.Fatalf("system days = %d, want 1", len(system))
	}
	// 2 kW + 3 kW held for 2 hours.
	if diff := system[0].Quantity - 10; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("system kWh = %v, want 10", system[0].Quantity)
	}
	if system[0].PeakKW != 3 {
		t.Fatalf("peak = %v, want 3", system[0].PeakKW)
	}

	member, err := repo.ListSeries(context.Background(), reporting.SeriesID("solar.daily.sensor.inv1"), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list member: %v", err)
	}
	if diff := member[0].Quantity - 4; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("member kWh = %v, want 4", member[0].Quantity)
	}
}

func TestSolarServiceUncoveredDateFails(t *testing.T) {
	loader := stubFeedLoader{rowsByPath: map[string][]readings.RawRow{"solar.csv": {
		row("sensor.inv1", "2023-01-01T09:00:00Z", "2"),
		row("sensor.inv1", "2023-01-01T10:00:00Z", "2"),
	}}}
	groups := []solar.InverterGroup{{
		Name:    "array",
		Members: []string{"sensor.inv1"},
		From:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
	service, err := NewSolarService(SolarConfig{Feeds: []string{"solar.csv"}}, groups, loader, testNormalizer(t), memoryrepo.NewSeriesRepository(), testLogger())
	if err != nil {
		t.Fatalf("new solar service: %v", err)
	}
	if err := service.Run(context.Background()); !errors.Is(err, solar.ErrNoGroupForDate) {
		t.Fatalf("err = %v, want ErrNoGroupForDate", err)
	}
}

func TestFactoryServiceSpansMeterReset(t *testing.T) {
	loader := stubFeedLoader{rowsByPath: map[string][]readings.RawRow{"factory.csv": {
		row("sensor.factory_meter", "2025-03-10T08:00:00Z", "1000"),
		row("sensor.factory_meter", "2025-03-10T12:00:00Z", "1400"),
		row("sensor.factory_meter", "2025-03-10T16:00:00Z", "50"),
		row("sensor.factory_meter", "2025-03-10T20:00:00Z", "350"),
	}}}
	cfg := FactoryConfig{
		Sensor: SensorConfig{ID: "sensor.factory_meter", Kind: "cumulative_counter", ResetThreshold: 500},
		Feeds:  []string{"factory.csv"},
	}
	repo := memoryrepo.NewSeriesRepository()
	service, err := NewFactoryService(cfg, loader, testNormalizer(t), repo, testLogger())
	if err != nil {
		t.Fatalf("new factory service: %v", err)
	}
	if err := service.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	records, err := repo.ListSeries(context.Background(), reporting.SeriesFactoryDaily, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].Quantity != 700 {
		t.Fatalf("records = %+v, want one day of 700 kWh", records)
	}
}

func TestFactoryServiceNoReadings(t *testing.T) {
	loader := stubFeedLoader{rowsByPath: map[string][]readings.RawRow{"factory.csv": nil}}
	cfg := FactoryConfig{
		Sensor: SensorConfig{ID: "sensor.factory_meter", Kind: "cumulative_counter", ResetThreshold: 500},
		Feeds:  []string{"factory.csv"},
	}
	service, err := NewFactoryService(cfg, loader, testNormalizer(t), memoryrepo.NewSeriesRepository(), testLogger())
	if err != nil {
		t.Fatalf("new factory service: %v", err)
	}
	if err := service.Run(context.Background()); err == nil {
		t.Fatal("expected error for empty feed")
	}
}

func TestRunnerJoinsFailures(t *testing.T) {
	okService := runFunc(func(context.Context) error { return nil })
	failService := runFunc(func(context.Context) error { return errors.New("boom") })

	runner, err := NewRunner(okService, failService, okService)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if err := runner.RunAll(context.Background()); err == nil {
		t.Fatal("expected joined failure")
	}

	runner, err = NewRunner(okService, okService)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if err := runner.RunAll(context.Background()); err != nil {
		t.Fatalf("run all: %v", err)
	}
}

type runFunc func(ctx context.Context) error

func (f runFunc) Run(ctx context.Context) error { return f(ctx) }

func formatLevel(level float64) string {
	return strconv.FormatFloat(level, 'f', -1, 64)
}
