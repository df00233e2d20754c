package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the judge client configuration. Values load from the YAML
// file first; environment variables override for deployment.
type Config struct {
	Backend struct {
		APIURL string `yaml:"api_url"`
		WSURL  string `yaml:"ws_url"`
	} `yaml:"backend"`
	Judge struct {
		ID string `yaml:"id"`
	} `yaml:"judge"`
	Timers struct {
		SchedulePollIntervalSec int `yaml:"schedule_poll_interval_sec"`
		BackoffStepSec          int `yaml:"backoff_step_sec"`
		MaxBackoffSec           int `yaml:"max_backoff_sec"`
	} `yaml:"timers"`
}

// SchedulePollInterval returns the configured poll interval; zero
// lets the reconciler fall back to its default.
func (c *Config) SchedulePollInterval() time.Duration {
	return time.Duration(c.Timers.SchedulePollIntervalSec) * time.Second
}

func (c *Config) BackoffStep() time.Duration {
	return time.Duration(c.Timers.BackoffStepSec) * time.Second
}

func (c *Config) MaxBackoff() time.Duration {
	return time.Duration(c.Timers.MaxBackoffSec) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	var config Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Backend.APIURL = getEnv("JUDGESYNC_API_URL", config.Backend.APIURL)
	config.Backend.WSURL = getEnv("JUDGESYNC_WS_URL", config.Backend.WSURL)
	config.Judge.ID = getEnv("JUDGESYNC_JUDGE_ID", config.Judge.ID)

	if config.Backend.APIURL == "" {
		return nil, fmt.Errorf("backend api_url is required")
	}
	if config.Judge.ID == "" {
		return nil, fmt.Errorf("judge id is required")
	}

	return &config, nil
}
