package application

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	fusion "energy-dashboard/internal/fusion/domain"
	pricing "energy-dashboard/internal/pricing/domain"
	readings "energy-dashboard/internal/readings/domain"
	solar "energy-dashboard/internal/solar/domain"
)

// Config is the deployment configuration: which sensors exist, what kind
// each one is, and the physical tuning constants that depend on the actual
// installation (tank size, array size, meter scale). Sensor kinds are
// mandatory and never defaulted; a misclassified sensor corrupts output
// silently, so loading fails loudly instead.
type Config struct {
	Fuel    FuelConfig    `yaml:"fuel"`
	Solar   SolarConfig   `yaml:"solar"`
	Factory FactoryConfig `yaml:"factory"`
	Quality QualityConfig `yaml:"quality"`
}

// SensorConfig declares one physical sensor.
type SensorConfig struct {
	ID              string  `yaml:"id"`
	Kind            string  `yaml:"kind"`
	ResetThreshold  float64 `yaml:"reset_threshold"`
	SmoothingWindow int     `yaml:"smoothing_window"`
	MinDrop         float64 `yaml:"min_drop"`
	MaxDrop         float64 `yaml:"max_drop"`
	DailyCap        float64 `yaml:"daily_cap"`
}

// Spec converts to the domain sensor spec. Kinds are written lowercase in
// the yaml file and mapped to the canonical uppercase values here.
func (s SensorConfig) Spec() readings.SensorSpec {
	return readings.SensorSpec{
		ID:              s.ID,
		Kind:            readings.SensorKind(strings.ToUpper(s.Kind)),
		ResetThreshold:  s.ResetThreshold,
		SmoothingWindow: s.SmoothingWindow,
		MinDrop:         s.MinDrop,
		MaxDrop:         s.MaxDrop,
		DailyCap:        s.DailyCap,
	}
}

// FuelConfig drives the dual-source fuel pipeline.
type FuelConfig struct {
	Primary     SensorConfig `yaml:"primary_sensor"`
	Backup      SensorConfig `yaml:"backup_sensor"`
	Feeds       []string     `yaml:"feeds"`
	LedgerPath  string       `yaml:"ledger"`
	PricingMode string       `yaml:"pricing_mode"`
	// NoiseFloor distinguishes "not set" (nil, use the fusion default) from
	// an explicit zero, which disables the floor.
	NoiseFloor *float64 `yaml:"noise_floor"`
	// Preferred names the source expected to be denser. It is checked
	// against measured density at startup and overridden with a warning if
	// wrong.
	Preferred string `yaml:"preferred_source"`
}

// GroupConfig declares inverter membership over a date range.
type GroupConfig struct {
	Name    string   `yaml:"name"`
	Members []string `yaml:"members"`
	From    string   `yaml:"from"`
	To      string   `yaml:"to"`
}

// Duration wraps time.Duration so yaml files can write "1h" instead of
// nanosecond counts.
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// SolarConfig drives the solar integration pipeline.
type SolarConfig struct {
	Groups []GroupConfig `yaml:"groups"`
	Feeds  []string      `yaml:"feeds"`
	MaxGap Duration      `yaml:"max_gap"`
}

// FactoryConfig drives the factory meter pipeline.
type FactoryConfig struct {
	Sensor SensorConfig `yaml:"sensor"`
	Feeds  []string     `yaml:"feeds"`
}

// QualityConfig tunes the scorer.
type QualityConfig struct {
	MinPoints int `yaml:"min_points"`
	// ExpectedFrom/ExpectedTo declare the nominal coverage window the feeds
	// are supposed to span. When set, completeness is judged against this
	// window, so missing leading or trailing days count against the score.
	// When empty, each series is judged over its own observed span.
	ExpectedFrom string `yaml:"expected_from"`
	ExpectedTo   string `yaml:"expected_to"`
}

// ExpectedRange parses the optional nominal coverage window. Both bounds
// must be set together.
func (c QualityConfig) ExpectedRange() (time.Time, time.Time, bool, error) {
	if c.ExpectedFrom == "" && c.ExpectedTo == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if c.ExpectedFrom == "" || c.ExpectedTo == "" {
		return time.Time{}, time.Time{}, false, errors.New("config: quality expected_from and expected_to must be set together")
	}
	from, err := time.Parse("2006-01-02", c.ExpectedFrom)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("config: quality expected_from: %w", err)
	}
	to, err := time.Parse("2006-01-02", c.ExpectedTo)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("config: quality expected_to: %w", err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, false, errors.New("config: quality expected_to precedes expected_from")
	}
	return from.UTC(), to.UTC(), true, nil
}

var (
	// ErrNoFeeds is returned when a pipeline has no input files configured.
	ErrNoFeeds = errors.New("config: no feeds configured")
)

// LoadConfig reads and validates the yaml deployment file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every sensor and group declaration.
func (c *Config) Validate() error {
	for name, sensor := range map[string]SensorConfig{
		"fuel.primary_sensor": c.Fuel.Primary,
		"fuel.backup_sensor":  c.Fuel.Backup,
		"factory.sensor":      c.Factory.Sensor,
	} {
		if err := sensor.Spec().Validate(); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	if len(c.Fuel.Feeds) == 0 || len(c.Solar.Feeds) == 0 || len(c.Factory.Feeds) == 0 {
		return ErrNoFeeds
	}
	if mode := pricing.Mode(c.Fuel.PricingMode); mode != "" && !mode.IsValid() {
		return pricing.ErrInvalidMode
	}
	if c.Fuel.Preferred != "" {
		preferred := fusion.Source(strings.ToUpper(c.Fuel.Preferred))
		if preferred != fusion.SourcePrimary && preferred != fusion.SourceBackup {
			return fusion.ErrInvalidPreference
		}
	}
	if len(c.Solar.Groups) == 0 {
		return solar.ErrNoGroupMembers
	}
	for _, group := range c.Solar.Groups {
		parsed, err := group.Parse()
		if err != nil {
			return err
		}
		if err := parsed.Validate(); err != nil {
			return err
		}
	}
	if _, _, _, err := c.Quality.ExpectedRange(); err != nil {
		return err
	}
	return nil
}

// Parse converts a group declaration to the domain type.
func (g GroupConfig) Parse() (solar.InverterGroup, error) {
	group := solar.InverterGroup{Name: g.Name, Members: g.Members}
	if g.From != "" {
		from, err := time.Parse("2006-01-02", g.From)
		if err != nil {
			return solar.InverterGroup{}, fmt.Errorf("config: group %s from: %w", g.Name, err)
		}
		group.From = from.UTC()
	}
	if g.To != "" {
		to, err := time.Parse("2006-01-02", g.To)
		if err != nil {
			return solar.InverterGroup{}, fmt.Errorf("config: group %s to: %w", g.Name, err)
		}
		group.To = to.UTC()
	}
	return group, nil
}

// Groups returns the parsed inverter groups. Validate must have passed.
func (c *Config) Groups() []solar.InverterGroup {
	out := make([]solar.InverterGroup, 0, len(c.Solar.Groups))
	for _, group := range c.Solar.Groups {
		parsed, err := group.Parse()
		if err != nil {
			continue
		}
		out = append(out, parsed)
	}
	return out
}
