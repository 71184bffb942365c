package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Load and WithDefaults.
const (
	DefaultTolerance    = 0.001
	DefaultHours        = 8760
	DefaultWorkers      = 1
	DefaultThresholdLux = 300.0
	DefaultFormat       = "json"
)

// Config holds the settings for one aggregation run, loaded from
// illumprofile.yml. It is passed explicitly to every component that needs it.
type Config struct {
	// Tolerance is the distance under which a model point matches the query point.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Hours is the expected length of an annual series (8760 for a full year).
	Hours int `yaml:"hours,omitempty"`

	// Workers bounds how many shading-state columns are read at once.
	// The default of 1 reads states one after another.
	Workers int `yaml:"workers,omitempty"`

	// StrictStates turns a shading-state collision between two result
	// branches into an error instead of a warning.
	StrictStates bool `yaml:"strictStates,omitempty"`

	// ThresholdLux is the illuminance used for the hours-above summary.
	ThresholdLux float64 `yaml:"thresholdLux,omitempty"`

	// Format selects the CLI output encoding: "json" or "csv".
	Format string `yaml:"format,omitempty"`

	// Verbose prints per-state read progress on the CLI.
	Verbose bool `yaml:"verbose,omitempty"`
}

// Load attempts to read illumprofile.yml or illumprofile.yaml from the given
// directory. Returns a default config (not an error) if no config file exists.
func Load(dir string) (*Config, error) {
	for _, name := range []string{"illumprofile.yml", "illumprofile.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg = cfg.WithDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	cfg := Config{}.WithDefaults()
	return &cfg, nil
}

// WithDefaults returns a copy of c with every unset field filled in.
func (c Config) WithDefaults() Config {
	if c.Tolerance == 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.Hours == 0 {
		c.Hours = DefaultHours
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.ThresholdLux == 0 {
		c.ThresholdLux = DefaultThresholdLux
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	return c
}

// Validate reports settings that cannot be used for a run.
func (c Config) Validate() error {
	if c.Tolerance < 0 {
		return fmt.Errorf("config: tolerance must be positive, got %g", c.Tolerance)
	}
	if c.Hours < 0 {
		return fmt.Errorf("config: hours must be positive, got %d", c.Hours)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	switch c.Format {
	case "", "json", "csv":
	default:
		return fmt.Errorf("config: unknown format %q (want json or csv)", c.Format)
	}
	return nil
}
