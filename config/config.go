// Package config provides configuration loading for the headless runner.
// The in-registry SSimulationConfig singleton stays part of serialized
// simulation state; this file-level config only describes how a run is set
// up.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds the runner configuration.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Population PopulationConfig `yaml:"population"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	Run        RunConfig        `yaml:"run"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// WorldConfig holds the grid dimensions.
type WorldConfig struct {
	Width  int32 `yaml:"width"`
	Height int32 `yaml:"height"`
}

// PopulationConfig describes the seed population.
type PopulationConfig struct {
	Brains       int    `yaml:"brains"`        // entities with brain, seer, mover, scorable
	Predators    int    `yaml:"predators"`     // entities with predation and random movement
	RandomMovers int    `yaml:"random_movers"` // plain wandering entities
	Seed         uint64 `yaml:"seed"`          // base seed for the per-entity generators
}

// EvolutionConfig maps onto the SSimulationConfig singleton.
type EvolutionConfig struct {
	TicksPerEvolution uint32 `yaml:"ticks_per_evolution"`
	WinnerCount       uint32 `yaml:"winner_count"`
	NewEntityCount    uint32 `yaml:"new_entity_count"`
}

// RunConfig holds run length and output destinations.
type RunConfig struct {
	Ticks        int    `yaml:"ticks"`
	SnapshotPath string `yaml:"snapshot_path"`
	ScoresPath   string `yaml:"scores_path"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file, merging over the embedded
// defaults. An empty path uses defaults only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
