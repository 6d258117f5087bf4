// Package config loads the static build configuration. The configuration
// is data, not flags: a TOML file declares the package metadata and file
// maps, and the loaded value is immutable for the whole run.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/ralt/debforge/internal/models"
	"github.com/sirupsen/logrus"
)

// Load reads and validates a build configuration file. Relative source
// paths and the output location resolve against the file's directory
// unless the file sets root_dir itself.
func Load(path string) (*models.BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	var cfg models.BuildConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.RootDir == "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		cfg.RootDir = filepath.Dir(absPath)
	}
	if cfg.Section == "" {
		cfg.Section = "misc"
	}
	if cfg.Priority == "" {
		cfg.Priority = "optional"
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	logrus.Debugf("Loaded configuration for %s from %s", cfg.Name, path)
	return &cfg, nil
}

// Validate checks the configuration for internal consistency. Strip and
// dependency targets must name files that actually get staged.
func Validate(cfg *models.BuildConfig) error {
	if cfg.Name == "" {
		return &models.BuildError{
			Type: models.ErrConfigInconsistency,
			Err:  fmt.Errorf("package name is required"),
		}
	}
	if cfg.Author == "" {
		return &models.BuildError{
			Type: models.ErrConfigInconsistency,
			Err:  fmt.Errorf("author is required"),
		}
	}

	staged := make(map[string]bool, len(cfg.Files))
	for _, target := range cfg.Files {
		staged[target] = true
	}

	for _, target := range cfg.StripTargets {
		if !staged[target] {
			return &models.BuildError{
				Type: models.ErrConfigInconsistency,
				Path: target,
				Err:  fmt.Errorf("strip target is not a staged file"),
			}
		}
	}
	for _, target := range cfg.DependencyTargets {
		if !staged[target] {
			return &models.BuildError{
				Type: models.ErrConfigInconsistency,
				Path: target,
				Err:  fmt.Errorf("dependency target is not a staged file"),
			}
		}
	}

	return nil
}
