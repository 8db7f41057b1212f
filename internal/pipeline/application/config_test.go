package application

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	readings "energy-dashboard/internal/readings/domain"
	solar "energy-dashboard/internal/solar/domain"
)

const validConfig = `
fuel:
  primary_sensor:
    id: sensor.generator_fuel_consumed
    kind: cumulative_counter
    reset_threshold: 50
  backup_sensor:
    id: sensor.generator_fuel_level
    kind: gauge_level
    smoothing_window: 20
    min_drop: 0.5
    max_drop: 60
    daily_cap: 400
  feeds: [fuel.csv]
  ledger: purchases.xlsx
  pricing_mode: nearest_prior
  preferred_source: primary
solar:
  feeds: [solar.csv]
  max_gap: 1h
  groups:
    - name: legacy
      members: [sensor.inv1, sensor.inv2, sensor.inv3, sensor.inv4]
      to: 2024-06-01
    - name: current
      members: [sensor.inv1, sensor.inv2, sensor.inv3]
      from: 2024-06-01
factory:
  sensor:
    id: sensor.factory_meter
    kind: cumulative_counter
    reset_threshold: 500
  feeds: [factory.csv]
quality:
  min_points: 3
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigValid(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Fuel.Primary.Spec().Kind != readings.KindCumulativeCounter {
		t.Fatalf("primary kind = %s", cfg.Fuel.Primary.Spec().Kind)
	}
	if time.Duration(cfg.Solar.MaxGap) != time.Hour {
		t.Fatalf("max gap = %v, want 1h", cfg.Solar.MaxGap)
	}

	groups := cfg.Groups()
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	cutover := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !groups[0].To.Equal(cutover) || !groups[1].From.Equal(cutover) {
		t.Fatalf("cutover dates = %v / %v", groups[0].To, groups[1].From)
	}
}

func TestLoadConfigMissingKind(t *testing.T) {
	broken := `
fuel:
  primary_sensor:
    id: sensor.generator_fuel_consumed
  backup_sensor:
    id: sensor.generator_fuel_level
    kind: gauge_level
  feeds: [fuel.csv]
solar:
  feeds: [solar.csv]
  groups:
    - name: array
      members: [sensor.inv1]
factory:
  sensor:
    id: sensor.factory_meter
    kind: cumulative_counter
  feeds: [factory.csv]
`
	_, err := LoadConfig(writeConfig(t, broken))
	if !errors.Is(err, readings.ErrMissingSensorKind) {
		t.Fatalf("err = %v, want ErrMissingSensorKind", err)
	}
}

func TestLoadConfigNoFeeds(t *testing.T) {
	broken := `
fuel:
  primary_sensor: {id: a, kind: cumulative_counter}
  backup_sensor: {id: b, kind: gauge_level}
  feeds: [fuel.csv]
solar:
  feeds: []
  groups:
    - name: array
      members: [sensor.inv1]
factory:
  sensor: {id: c, kind: cumulative_counter}
  feeds: [factory.csv]
`
	_, err := LoadConfig(writeConfig(t, broken))
	if !errors.Is(err, ErrNoFeeds) {
		t.Fatalf("err = %v, want ErrNoFeeds", err)
	}
}

func TestLoadConfigEmptyGroup(t *testing.T) {
	broken := `
fuel:
  primary_sensor: {id: a, kind: cumulative_counter}
  backup_sensor: {id: b, kind: gauge_level}
  feeds: [fuel.csv]
solar:
  feeds: [solar.csv]
  groups:
    - name: array
      members: []
factory:
  sensor: {id: c, kind: cumulative_counter}
  feeds: [factory.csv]
`
	_, err := LoadConfig(writeConfig(t, broken))
	if !errors.Is(err, solar.ErrNoGroupMembers) {
		t.Fatalf("err = %v, want ErrNoGroupMembers", err)
	}
}

func TestLoadConfigBadPreference(t *testing.T) {
	broken := `
fuel:
  primary_sensor: {id: a, kind: cumulative_counter}
  backup_sensor: {id: b, kind: gauge_level}
  feeds: [fuel.csv]
  preferred_source: tertiary
solar:
  feeds: [solar.csv]
  groups:
    - name: array
      members: [sensor.inv1]
factory:
  sensor: {id: c, kind: cumulative_counter}
  feeds: [factory.csv]
`
	if _, err := LoadConfig(writeConfig(t, broken)); err == nil {
		t.Fatal("expected error for unknown preferred source")
	}
}

func TestLoadConfigNoiseFloorOmittedVsZero(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Fuel.NoiseFloor != nil {
		t.Fatalf("noise floor = %v, want nil when omitted", *cfg.Fuel.NoiseFloor)
	}

	withZero := strings.Replace(validConfig, "pricing_mode: nearest_prior", "pricing_mode: nearest_prior\n  noise_floor: 0", 1)
	cfg, err = LoadConfig(writeConfig(t, withZero))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Fuel.NoiseFloor == nil || *cfg.Fuel.NoiseFloor != 0 {
		t.Fatalf("noise floor = %v, want an explicit zero", cfg.Fuel.NoiseFloor)
	}
}

func TestQualityConfigExpectedRange(t *testing.T) {
	from, to, ok, err := QualityConfig{ExpectedFrom: "2025-03-01", ExpectedTo: "2025-03-31"}.ExpectedRange()
	if err != nil || !ok {
		t.Fatalf("expected range: ok=%v err=%v", ok, err)
	}
	if !from.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("range = %v..%v", from, to)
	}

	if _, _, ok, err := (QualityConfig{}).ExpectedRange(); err != nil || ok {
		t.Fatalf("empty window: ok=%v err=%v, want unset without error", ok, err)
	}
	if _, _, _, err := (QualityConfig{ExpectedFrom: "2025-03-01"}).ExpectedRange(); err == nil {
		t.Fatal("expected error for a half-set window")
	}
	if _, _, _, err := (QualityConfig{ExpectedFrom: "2025-03-31", ExpectedTo: "2025-03-01"}).ExpectedRange(); err == nil {
		t.Fatal("expected error for a reversed window")
	}
	if _, _, _, err := (QualityConfig{ExpectedFrom: "soon", ExpectedTo: "later"}).ExpectedRange(); err == nil {
		t.Fatal("expected error for unparseable dates")
	}
}

func TestLoadConfigRejectsHalfSetQualityWindow(t *testing.T) {
	broken := validConfig + "  expected_from: 2025-03-01\n"
	if _, err := LoadConfig(writeConfig(t, broken)); err == nil {
		t.Fatal("expected error for a half-set quality window")
	}
}
