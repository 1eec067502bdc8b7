// Package cctrconfig loads the optional .cctr.yml project config: default
// shell, parallelism, extra environment variables, and color settings
// that CLI flags can override.
package cctrconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds project-wide defaults that CLI flags may override.
type Config struct {
	Shell    string   `yaml:"shell,omitempty"`
	Parallel int      `yaml:"parallel,omitempty"`
	NoColor  bool     `yaml:"no_color,omitempty"`
	Env      []string `yaml:"env,omitempty"`
}

// Load reads and validates a .cctr.yml file. A missing file is not an
// error; Load returns a zero-value Config in that case.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Parallel < 0 {
		return fmt.Errorf("config: parallel must be >= 0, got %d", cfg.Parallel)
	}
	for _, e := range cfg.Env {
		if !containsEquals(e) {
			return fmt.Errorf("config: env entry %q must be in KEY=VALUE form", e)
		}
	}
	return nil
}

func containsEquals(s string) bool {
	for _, c := range s {
		if c == '=' {
			return true
		}
	}
	return false
}
