package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ralt/debforge/internal/models"
)

const sampleConfig = `name = "samplepkg"
author = "Jane Doe <jane@example.com>"
author_years = "2026"
homepage = "https://example.com/samplepkg"
license = "MIT"
short_description = "a sample package"
long_description = ["It does sample things."]
strip_targets = ["usr/bin/samplepkg"]
arch_source_file = "build/samplepkg"
dependency_targets = ["usr/bin/samplepkg"]

[files]
"build/samplepkg" = "usr/bin/samplepkg"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "debforge.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Name != "samplepkg" {
		t.Errorf("got name %q, want samplepkg", cfg.Name)
	}
	if cfg.Files["build/samplepkg"] != "usr/bin/samplepkg" {
		t.Errorf("file map not loaded: %v", cfg.Files)
	}
	if cfg.RootDir != filepath.Dir(path) {
		t.Errorf("got root dir %q, want %q", cfg.RootDir, filepath.Dir(path))
	}
	// Defaults fill in the section and priority.
	if cfg.Section != "misc" {
		t.Errorf("got section %q, want misc", cfg.Section)
	}
	if cfg.Priority != "optional" {
		t.Errorf("got priority %q, want optional", cfg.Priority)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Errorf("Load succeeded on missing file")
	}
}

func TestValidateMissingName(t *testing.T) {
	path := writeConfig(t, `author = "Jane Doe <jane@example.com>"`)

	_, err := Load(path)
	var buildErr *models.BuildError
	if !errors.As(err, &buildErr) || buildErr.Type != models.ErrConfigInconsistency {
		t.Errorf("got %v, want ConfigInconsistency error", err)
	}
}

func TestValidateUnknownStripTarget(t *testing.T) {
	cfg := &models.BuildConfig{
		Name:         "samplepkg",
		Author:       "Jane Doe <jane@example.com>",
		Files:        map[string]string{"build/samplepkg": "usr/bin/samplepkg"},
		StripTargets: []string{"usr/bin/other"},
	}

	err := Validate(cfg)
	var buildErr *models.BuildError
	if !errors.As(err, &buildErr) || buildErr.Type != models.ErrConfigInconsistency {
		t.Errorf("got %v, want ConfigInconsistency error", err)
	}
}

func TestValidateUnknownDependencyTarget(t *testing.T) {
	cfg := &models.BuildConfig{
		Name:              "samplepkg",
		Author:            "Jane Doe <jane@example.com>",
		Files:             map[string]string{"build/samplepkg": "usr/bin/samplepkg"},
		DependencyTargets: []string{"usr/bin/other"},
	}

	err := Validate(cfg)
	var buildErr *models.BuildError
	if !errors.As(err, &buildErr) || buildErr.Type != models.ErrConfigInconsistency {
		t.Errorf("got %v, want ConfigInconsistency error", err)
	}
}
