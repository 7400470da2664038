// Package config handles gfztool configuration loading and management.
package config

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Config holds all tool settings.
type Config struct {
	Format  FormatConfig  `yaml:"format"`
	Import  ImportConfig  `yaml:"import"`
	Logging LoggingConfig `yaml:"logging"`
}

// FormatConfig holds binary decoding settings.
type FormatConfig struct {
	ByteOrder string `yaml:"byte_order"` // "big" or "little"
	Alignment int    `yaml:"alignment"`  // FIFO block size in bytes
	MaxDepth  int    `yaml:"max_depth"`  // Record nesting limit
}

// ImportConfig holds batch import settings.
type ImportConfig struct {
	Workers    int      `yaml:"workers"`
	Extensions []string `yaml:"extensions"` // Matched when walking directories
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Format: FormatConfig{
			ByteOrder: "big",
			Alignment: 32,
			MaxDepth:  256,
		},
		Import: ImportConfig{
			Workers:    4,
			Extensions: []string{".gma", ".bin"},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Order returns the configured byte order.
func (f FormatConfig) Order() (binary.ByteOrder, error) {
	switch strings.ToLower(f.ByteOrder) {
	case "", "big", "be":
		return binary.BigEndian, nil
	case "little", "le":
		return binary.LittleEndian, nil
	default:
		return nil, fmt.Errorf("unknown byte order %q", f.ByteOrder)
	}
}

// Validate checks value ranges that would otherwise fail deep inside a parse.
func (c *Config) Validate() error {
	if _, err := c.Format.Order(); err != nil {
		return err
	}
	if c.Format.Alignment <= 0 {
		return fmt.Errorf("alignment must be positive, got %d", c.Format.Alignment)
	}
	if c.Format.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.Format.MaxDepth)
	}
	if c.Import.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Import.Workers)
	}
	return nil
}
