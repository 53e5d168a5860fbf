package config

import (
	"flag"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Flags holds command-line flag values.
type Flags struct {
	ConfigPath  string
	Host        string
	Port        int
	LogLevel    string
	RealWorkers int
}

// ParseFlags parses command-line flags and returns a Flags struct.
func ParseFlags() *Flags {
	f := &Flags{}

	flag.StringVar(&f.ConfigPath, "config", "./robind.toml", "Path to configuration file")
	flag.StringVar(&f.Host, "host", "", "Server listen host")
	flag.IntVar(&f.Port, "port", 0, "Server listen port")
	flag.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.IntVar(&f.RealWorkers, "real-workers", 0, "Number of real (long-lived) pool workers")

	flag.Parse()
	return f
}

// Load parses a TOML configuration file and returns the Config.
// If the file does not exist, returns the default configuration.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig Config
	if err := toml.Unmarshal(data, &fileConfig); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	return mergeConfig(cfg, fileConfig), nil
}

// ApplyFlags merges command-line flag values into the config.
// Non-zero/non-empty flag values override config file values.
func ApplyFlags(cfg Config, f *Flags) Config {
	if f.Host != "" {
		cfg.Host = f.Host
	}

	if f.Port > 0 {
		cfg.Port = f.Port
	}

	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}

	if f.RealWorkers > 0 {
		cfg.Pool.RealWorkers = f.RealWorkers
	}

	return cfg
}

// LoadWithFlags loads configuration from the path specified in flags,
// then applies flag overrides.
func LoadWithFlags(f *Flags) (Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return cfg, err
	}
	return ApplyFlags(cfg, f), nil
}

// mergeConfig merges non-zero values from src into dst.
func mergeConfig(dst, src Config) Config {
	if src.Host != "" {
		dst.Host = src.Host
	}

	if src.Port > 0 {
		dst.Port = src.Port
	}

	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}

	if src.Pool.RealWorkers > 0 {
		dst.Pool.RealWorkers = src.Pool.RealWorkers
	}

	if src.Limits.MaxLineLength > 0 {
		dst.Limits.MaxLineLength = src.Limits.MaxLineLength
	}

	if src.Metrics.Enabled {
		dst.Metrics.Enabled = src.Metrics.Enabled
	}

	if src.Metrics.Address != "" {
		dst.Metrics.Address = src.Metrics.Address
	}

	if src.Metrics.Path != "" {
		dst.Metrics.Path = src.Metrics.Path
	}

	return dst
}
