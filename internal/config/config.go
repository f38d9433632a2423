// Package config loads and saves the dicomsum tool configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the external tool locations and the directory-listing
// extension set.
type Config struct {
	// DCMDump is the header dump binary, resolved via PATH when
	// relative.
	DCMDump string `yaml:"dcmdump"`
	// DCM2NIIX is the DICOM-to-NIfTI converter binary.
	DCM2NIIX string `yaml:"dcm2niix"`
	// Extensions is the case-sensitive list of DICOM file extensions
	// counted as volumes.
	Extensions []string `yaml:"extensions"`
	// Timeout bounds one external invocation, in time.ParseDuration
	// syntax. Empty means no bound.
	Timeout string `yaml:"timeout"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		DCMDump:    "dcmdump",
		DCM2NIIX:   "dcm2niix",
		Extensions: []string{"dcm", "ima", "IMA"},
		Timeout:    "2m",
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(base, "dicomsum", "config.yaml"), nil
}

// Load reads a config file. A missing file is not an error and yields
// the defaults; a present but malformed file is.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories as
// needed.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// TimeoutDuration parses the configured timeout. Empty means zero.
func (c Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}
