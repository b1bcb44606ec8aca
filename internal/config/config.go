package config

import (
	"fmt"
	"runtime"
)

// Config represents the complete application configuration
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StoreConfig controls how column shards are built and serialized
type StoreConfig struct {
	RowsPerPage        int    `mapstructure:"rows_per_page"`       // Rows per column page when building shards (default: 10000)
	PayloadCompression string `mapstructure:"payload_compression"` // none, snappy, lz4, zstd
}

// ResolverConfig controls batch row resolution
type ResolverConfig struct {
	Workers int `mapstructure:"workers"` // Max concurrent page tasks per batch (default: NumCPU)
	// FullDecompressRatio is the share of a page's rows above which a batch
	// decompresses the whole page array instead of reading single entries.
	FullDecompressRatio float64 `mapstructure:"full_decompress_ratio"`
}

// MetricsConfig controls prometheus instrumentation
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	if err := c.Resolver.Validate(); err != nil {
		return fmt.Errorf("resolver config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates store configuration
func (c *StoreConfig) Validate() error {
	if c.RowsPerPage < 1 {
		return fmt.Errorf("store.rows_per_page must be at least 1")
	}

	switch c.PayloadCompression {
	case "none", "snappy", "lz4", "zstd":
	default:
		return fmt.Errorf("store.payload_compression must be one of: none, snappy, lz4, zstd")
	}

	return nil
}

// Validate validates resolver configuration
func (c *ResolverConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("resolver.workers must be at least 1")
	}

	if c.FullDecompressRatio <= 0 || c.FullDecompressRatio > 1 {
		return fmt.Errorf("resolver.full_decompress_ratio must be in (0, 1]")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

func defaultWorkers() int {
	return runtime.NumCPU()
}
