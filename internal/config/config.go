// Package config loads the CLI's optional runtime configuration. Plan
// inputs (setup, catalog, engine package) are always explicit files; the
// config only covers where the local store lives and the scheduling
// defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aquaplan/aquaplan/internal/domain"
)

// Config holds the CLI's runtime configuration.
type Config struct {
	StorePath  string `yaml:"store_path"`
	Timezone   string `yaml:"timezone"`
	WeeklyDay  int    `yaml:"weekly_day"`  // 0 = Sunday
	MonthlyDay int    `yaml:"monthly_day"` // clamped per month
}

// Load reads a YAML config file, applies defaults, and validates. An
// empty path returns the defaults; a missing file at an explicit path is
// an error.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.StorePath == "" {
		c.StorePath = "aquaplan.db"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.MonthlyDay == 0 {
		c.MonthlyDay = 1
	}
}

func (c *Config) validate() error {
	var problems []string

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("timezone %q is not a valid IANA name", c.Timezone))
	}
	if c.WeeklyDay < 0 || c.WeeklyDay > 6 {
		problems = append(problems, "weekly_day must be 0-6")
	}
	if c.MonthlyDay < 1 || c.MonthlyDay > 31 {
		problems = append(problems, "monthly_day must be 1-31")
	}

	if len(problems) > 0 {
		return &domain.EngineError{
			Code:    domain.ErrConfigInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrConfigInvalid.Message, problems),
		}
	}
	return nil
}
