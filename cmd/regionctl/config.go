package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/regionkit/pkg/types"
	"github.com/joshuapare/regionkit/region/dirty"
)

// Config holds regionctl settings.
type Config struct {
	DefaultScheme    string `yaml:"default_scheme"`    // gzip, zlib or none (default: zlib)
	CompressionLevel int    `yaml:"compression_level"` // 0 = library default
	FlushMode        string `yaml:"flush_mode"`        // auto, data-only or full (default: auto)
	LogLevel         string `yaml:"log_level"`         // default: warn
	LogFormat        string `yaml:"log_format"`        // console or json (default: console)
	Strict           bool   `yaml:"strict"`            // reject files with header issues
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// loadConfig loads configuration from a YAML file.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	cfg.applyDefaults()

	if _, err := cfg.scheme(); err != nil {
		return nil, fmt.Errorf("config default_scheme: %w", err)
	}
	if _, err := cfg.flushMode(); err != nil {
		return nil, fmt.Errorf("config flush_mode: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DefaultScheme == "" {
		c.DefaultScheme = "zlib"
	}
	if c.FlushMode == "" {
		c.FlushMode = "auto"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
}

func (c *Config) scheme() (types.Scheme, error) {
	return types.ParseScheme(c.DefaultScheme)
}

func (c *Config) flushMode() (dirty.FlushMode, error) {
	return dirty.ParseFlushMode(c.FlushMode)
}
