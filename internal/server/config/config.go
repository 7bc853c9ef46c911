package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/go-theft-craft/chunklayer/internal/server/world"
	"github.com/go-theft-craft/chunklayer/pkg/protocol"
)

// Config holds the server configuration.
type Config struct {
	Height               int    `json:"height" yaml:"height"`
	MinY                 int    `json:"min_y" yaml:"min_y"`
	BiomeRegistryLen     int    `json:"biome_registry_len" yaml:"biome_registry_len"`
	CompressionThreshold int    `json:"compression_threshold" yaml:"compression_threshold"` // -1 disables compression
	ViewDistance         int    `json:"view_distance" yaml:"view_distance"`
	Seed                 int64  `json:"seed" yaml:"seed"`
	GeneratorType        string `json:"generator_type" yaml:"generator_type"` // "flat" or "void"

	// Simulation settings for cmd/chunkbench.
	Players          int `json:"players" yaml:"players"`
	Ticks            int `json:"ticks" yaml:"ticks"`
	MutationsPerTick int `json:"mutations_per_tick" yaml:"mutations_per_tick"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Height:               384,
		MinY:                 -64,
		BiomeRegistryLen:     64,
		CompressionThreshold: 256,
		ViewDistance:         8,
		GeneratorType:        "flat",
		Players:              4,
		Ticks:                20,
		MutationsPerTick:     64,
	}
}

// Load reads a YAML config file. Fields missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports configuration values the layer cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Height <= 0 || c.Height%16 != 0 {
		errs = append(errs, fmt.Errorf("height %d is not a positive multiple of 16", c.Height))
	}
	if c.MinY%16 != 0 {
		errs = append(errs, fmt.Errorf("min_y %d is not a multiple of 16", c.MinY))
	}
	if c.BiomeRegistryLen <= 0 {
		errs = append(errs, fmt.Errorf("biome_registry_len %d must be positive", c.BiomeRegistryLen))
	}
	if c.CompressionThreshold < -1 {
		errs = append(errs, fmt.Errorf("compression_threshold %d is below -1", c.CompressionThreshold))
	}
	if c.ViewDistance < 0 {
		errs = append(errs, fmt.Errorf("view_distance %d is negative", c.ViewDistance))
	}
	return errors.Join(errs...)
}

// LayerInfo returns the layer parameters described by c.
func (c *Config) LayerInfo() world.LayerInfo {
	return world.LayerInfo{
		Height:           c.Height,
		MinY:             c.MinY,
		BiomeRegistryLen: c.BiomeRegistryLen,
		Threshold:        protocol.CompressionThreshold(c.CompressionThreshold),
	}
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["height"] {
		cfg.Height = fromFile.Height
	}
	if !explicitFlags["min-y"] {
		cfg.MinY = fromFile.MinY
	}
	if !explicitFlags["biomes"] {
		cfg.BiomeRegistryLen = fromFile.BiomeRegistryLen
	}
	if !explicitFlags["compression-threshold"] {
		cfg.CompressionThreshold = fromFile.CompressionThreshold
	}
	if !explicitFlags["view-distance"] {
		cfg.ViewDistance = fromFile.ViewDistance
	}
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["generator"] {
		cfg.GeneratorType = fromFile.GeneratorType
	}
	if !explicitFlags["players"] {
		cfg.Players = fromFile.Players
	}
	if !explicitFlags["ticks"] {
		cfg.Ticks = fromFile.Ticks
	}
	if !explicitFlags["mutations"] {
		cfg.MutationsPerTick = fromFile.MutationsPerTick
	}
}
