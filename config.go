package qsplit

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures grouping and the execution pool.
type Config struct {
	// Relation names the compatibility relation: "commuting" or "qubitwise".
	Relation          string        `yaml:"relation"`
	Workers           int           `yaml:"workers"`
	MaxInFlight       int           `yaml:"max_in_flight"` // device calls at once, <= 0 is unlimited
	SchedulingTimeout time.Duration `yaml:"scheduling_timeout"`
	JobTimeout        time.Duration `yaml:"job_timeout"`
	ResultTTL         time.Duration `yaml:"result_ttl"`
	Retry             RetryConfig   `yaml:"retry"`
	Breaker           BreakerConfig `yaml:"breaker"`
}

// RetryConfig sets how often a failing device call is retried.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Initial     time.Duration `yaml:"initial"`
}

// BreakerConfig configures the per-device circuit breaker. A zero
// MaxFailures disables it.
type BreakerConfig struct {
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
	HalfOpenMax  int           `yaml:"half_open_max"`
}

func NewConfig() *Config {
	return &Config{
		Relation:          RelationCommuting,
		Workers:           4,
		MaxInFlight:       -1,
		SchedulingTimeout: 10 * time.Second,
		JobTimeout:        30 * time.Second,
		ResultTTL:         time.Minute,
		Retry: RetryConfig{
			MaxAttempts: 3,
			Initial:     100 * time.Millisecond,
		},
	}
}

// LoadConfig reads a YAML config file. Keys missing from the file keep
// their NewConfig defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if _, err := RelationByName(cfg.Relation); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// GroupOptions returns the grouping options the config selects.
func (c *Config) GroupOptions() ([]GroupOption, error) {
	if c == nil {
		return nil, nil
	}
	r, err := RelationByName(c.Relation)
	if err != nil {
		return nil, err
	}
	return []GroupOption{WithRelation(r)}, nil
}

func (c *Config) workers() int {
	if c != nil && c.Workers > 0 {
		return c.Workers
	}
	return 4
}

// maxInFlight maps every non-positive limit onto the semaphore's unlimited form.
func (c *Config) maxInFlight() int {
	if c != nil && c.MaxInFlight > 0 {
		return c.MaxInFlight
	}
	return -1
}

func (c *Config) schedulingTimeout() time.Duration {
	if c != nil && c.SchedulingTimeout > 0 {
		return c.SchedulingTimeout
	}
	return 5 * time.Second
}

func (c *Config) jobTimeout() time.Duration {
	if c != nil && c.JobTimeout > 0 {
		return c.JobTimeout
	}
	return 30 * time.Second
}

func (c *Config) resultTTL() time.Duration {
	if c != nil && c.ResultTTL > 0 {
		return c.ResultTTL
	}
	return time.Minute
}

func (c *Config) retryPolicy() *RetryPolicy {
	attempts, initial := 3, time.Second
	if c != nil {
		if c.Retry.MaxAttempts > 0 {
			attempts = c.Retry.MaxAttempts
		}
		if c.Retry.Initial > 0 {
			initial = c.Retry.Initial
		}
	}
	return &RetryPolicy{
		MaxAttempts: attempts,
		Strategy:    &ExponentialBackoff{Initial: initial},
	}
}
