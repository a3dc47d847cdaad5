package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/viant/hotelsearch/search"
)

// Config represents the hotelsearch.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Log         string         `yaml:"log"`
	MetricsFile string         `yaml:"metrics_file"`
	Search      search.Request `yaml:"search"`
	Catalog     CatalogConfig  `yaml:"catalog"`
	Bench       BenchConfig    `yaml:"bench"`
}

// CatalogConfig configures the hotel database and its index.
type CatalogConfig struct {
	DB        string `yaml:"db"`
	Index     string `yaml:"index"`
	Snapshots *bool  `yaml:"snapshots"`
	K         int    `yaml:"k"`
}

// BenchConfig configures the bench command.
type BenchConfig struct {
	Runs        int     `yaml:"runs"`
	Concurrency int     `yaml:"concurrency"`
	Rate        float64 `yaml:"rate"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Log:     "warn",
		Catalog: CatalogConfig{DB: "hotels.sqlite", Index: "auto", K: 10},
		Bench:   BenchConfig{Runs: 100, Concurrency: 8},
	}
}

// LoadConfig overlays the YAML file at path onto DefaultConfig. Unknown keys
// are rejected. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the sections that cannot be validated lazily.
func (c Config) Validate() error {
	if _, err := c.Search.Config(); err != nil {
		return fmt.Errorf("config: search: %w", err)
	}
	if c.Bench.Runs < 0 || c.Bench.Concurrency < 0 || c.Bench.Rate < 0 {
		return fmt.Errorf("config: bench values must be >= 0")
	}
	return nil
}

// snapshotsEnabled defaults to true.
func (c CatalogConfig) snapshotsEnabled() bool {
	return c.Snapshots == nil || *c.Snapshots
}
