package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadFromFile reads and validates the configuration. Malformed registries
// are rejected here rather than failing in the middle of a run.
func LoadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Config{}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BackupRoot == "" {
		return fmt.Errorf("config must set backup_root")
	}

	labels := make(map[string]struct{}, len(c.Sites))
	for i, s := range c.Sites {
		if s.Label == "" {
			return fmt.Errorf("site %d: label must not be empty", i)
		}
		if s.SourceDir == "" {
			return fmt.Errorf("site %q: source_dir must not be empty", s.Label)
		}
		if s.DBName == "" || s.DBUser == "" {
			return fmt.Errorf("site %q: db_name and db_user must not be empty", s.Label)
		}
		if _, ok := labels[s.Label]; ok {
			return fmt.Errorf("site %q: duplicate label", s.Label)
		}
		labels[s.Label] = struct{}{}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Excludes == nil {
		c.Excludes = DefaultExcludes
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
}
