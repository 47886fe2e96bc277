// Package configloader provides functionality to load configuration from .sqlctx.yaml file.
package configloader

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/MirrexOne/sqlctx/internal/completion"
	"github.com/MirrexOne/sqlctx/internal/dsl"
	"github.com/MirrexOne/sqlctx/pkg/config"
)

const (
	// ConfigFileName is the default configuration file name
	ConfigFileName = ".sqlctx.yaml"
	// AlternateConfigFileName is an alternate configuration file name
	AlternateConfigFileName = ".sqlctx.yml"
)

// LoadConfig loads configuration from a YAML file.
// It starts with default settings and overlays values from the file.
// A relative schema-file is resolved against the config file's directory.
func LoadConfig(path string) (*config.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}

	if cfg.SchemaFile != "" && !filepath.IsAbs(cfg.SchemaFile) {
		cfg.SchemaFile = filepath.Join(filepath.Dir(path), cfg.SchemaFile)
	}
	return cfg, nil
}

// Parse decodes settings from YAML on top of the defaults. Unknown keys are
// rejected.
func Parse(data []byte) (*config.Settings, error) {
	cfg := config.DefaultSettings()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.WithHint(err, "see `sqlctx config schema` for the accepted keys")
	}
	return &cfg, nil
}

// FindConfig searches for a configuration file in the current directory and parent directories.
func FindConfig() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindConfigFrom(dir), nil
}

// FindConfigFrom searches dir and its parents for a configuration file.
// It returns "" when there is none.
func FindConfigFrom(dir string) string {
	for {
		for _, name := range []string{ConfigFileName, AlternateConfigFileName} {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadOrDefault loads configuration from file or returns default settings.
func LoadOrDefault(configPath string) (*config.Settings, error) {
	// If explicit path is provided, use it
	if configPath != "" {
		return LoadConfig(configPath)
	}

	foundPath, err := FindConfig()
	if err != nil {
		return nil, err
	}

	if foundPath != "" {
		// If config file exists but is invalid, return error
		return LoadConfig(foundPath)
	}

	defaults := config.DefaultSettings()
	return &defaults, nil
}

// ValidateConfig validates the configuration, compiling its rules.
func ValidateConfig(cfg *config.Settings) error {
	if cfg.Dialect != "" && !slices.Contains(config.Dialects(), cfg.Dialect) {
		return errors.WithHintf(errors.Newf("invalid dialect: %s", cfg.Dialect),
			"supported dialects: %v", config.Dialects())
	}

	if cfg.Qualify != "" {
		if _, err := completion.ParseQualify(cfg.Qualify); err != nil {
			return err
		}
	}

	if cfg.VariablesDebounce < 0 {
		return errors.Newf("invalid variables-debounce: %s", cfg.VariablesDebounce)
	}

	seen := make(map[string]bool)
	for _, r := range cfg.Rules {
		if r.ID != "" && seen[r.ID] {
			return errors.Newf("duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true
	}

	_, err := dsl.FromSettings(*cfg, nil)
	return err
}
