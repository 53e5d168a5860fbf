// Package config provides configuration management for the Robin server.
package config

import (
	"errors"
	"fmt"
)

// PoolConfig configures the worker pool (internal/workerpool).
type PoolConfig struct {
	RealWorkers int `toml:"real_workers"`
}

// LimitsConfig defines resource limits for the server.
type LimitsConfig struct {
	MaxLineLength int `toml:"max_line_length"`
}

// MetricsConfig holds configuration for Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Path    string `toml:"path"`
}

// Config holds the Robin server configuration.
type Config struct {
	Host     string        `toml:"host"`
	Port     int           `toml:"port"`
	LogLevel string        `toml:"log_level"`
	Pool     PoolConfig    `toml:"pool"`
	Limits   LimitsConfig  `toml:"limits"`
	Metrics  MetricsConfig `toml:"metrics"`
}

// Default returns a Config with sensible default values.
func Default() Config {
	return Config{
		Host:     "0.0.0.0",
		Port:     8080,
		LogLevel: "info",
		Pool: PoolConfig{
			RealWorkers: 2,
		},
		Limits: LimitsConfig{
			MaxLineLength: 300,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9101",
			Path:    "/metrics",
		},
	}
}

// Validate checks that the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host is required")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in (0, 65535], got %d", c.Port)
	}

	if c.Pool.RealWorkers < 1 {
		return fmt.Errorf("pool.real_workers must be >= 1, got %d", c.Pool.RealWorkers)
	}

	if c.Limits.MaxLineLength < 1 {
		return fmt.Errorf("limits.max_line_length must be >= 1, got %d", c.Limits.MaxLineLength)
	}

	if c.Metrics.Enabled {
		if c.Metrics.Address == "" {
			return errors.New("metrics address is required when metrics are enabled")
		}
		if c.Metrics.Path == "" {
			return errors.New("metrics path is required when metrics are enabled")
		}
	}

	return nil
}
