// Package config loads .importguard.yml configuration files for scan
// settings, the removal action and logging.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/garagon/importguard/internal/remediation"
)

// FileNames are the accepted config file names, in lookup order.
var FileNames = []string{".importguard.yml", ".importguard.yaml"}

// Config represents the .importguard.yml configuration file.
type Config struct {
	// Denylist is the indicator file, relative to the project root.
	Denylist string `yaml:"denylist,omitempty"`
	// SelfPath overrides the self-exclusion segment. An explicit empty
	// string disables self-exclusion.
	SelfPath *string `yaml:"self_path,omitempty"`
	// Policy is an alternative policy file replacing the built-in one.
	Policy        string   `yaml:"policy,omitempty"`
	Ignore        []string `yaml:"ignore,omitempty"`
	Action        string   `yaml:"action,omitempty"`
	Confirm       bool     `yaml:"confirm,omitempty"`
	QuarantineDir string   `yaml:"quarantine_dir,omitempty"`
	MaxDepth      int      `yaml:"max_depth,omitempty"`
	Format        string   `yaml:"format,omitempty"`
	LogLevel      string   `yaml:"log_level,omitempty"`
	LogJSON       bool     `yaml:"log_json,omitempty"`
	Fail          bool     `yaml:"fail,omitempty"`
}

// Load reads the .importguard.yml or .importguard.yaml config file from the
// given path. If path is a file, its parent directory is used. If no config
// file is found, it returns a zero Config (not an error).
func Load(dir string) (Config, error) {
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
		if info.Size() > 1<<20 {
			return Config{}, fmt.Errorf("config file too large: %s (%d bytes, max 1 MB)", path, info.Size())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		if err := cfg.Validate(); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	}
	return Config{}, nil
}

// Validate checks values that cannot be caught by the YAML decoder.
func (c Config) Validate() error {
	if _, err := remediation.ParseMode(c.Action); err != nil {
		return err
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	return nil
}
