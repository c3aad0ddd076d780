package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"simpledb/internal/hash"
	dberrors "simpledb/pkg/errors"
	"simpledb/pkg/logger"
)

const (
	DefaultCapacity = 1024
	FileName        = "simpledb.yaml"
)

type Config struct {
	// Store
	Capacity     int    `yaml:"capacity"`
	HashFunction string `yaml:"hash_function"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Capacity:     DefaultCapacity,
		HashFunction: hash.DJB2,
		LogLevel:     logger.InfoLevel,
	}
}

// NewConfig loads dir/simpledb.yaml, falling back to defaults when the file
// does not exist.
func NewConfig(dir string) (*Config, error) {
	conf, err := FromFile(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return conf, err
}

// FromFile reads a YAML config. Fields missing from the file keep their defaults.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	conf := Default()
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return conf, nil
}

func (c *Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: %d", dberrors.ErrInvalidCapacity, c.Capacity)
	}
	if _, err := hash.FromName(c.HashFunction); err != nil {
		return err
	}
	return nil
}
