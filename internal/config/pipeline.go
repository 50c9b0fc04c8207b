package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvPipelineBatchWorkers     = "PRISM_PIPELINE_BATCH_WORKERS"
	EnvPipelineClaimGiveUp      = "PRISM_PIPELINE_CLAIM_GIVE_UP"
	EnvPipelineParseRetries     = "PRISM_PIPELINE_PARSE_RETRIES"
	EnvPipelineBreakerThreshold = "PRISM_PIPELINE_BREAKER_THRESHOLD"
	EnvPipelineReapStuckAfter   = "PRISM_PIPELINE_REAP_STUCK_AFTER"
	EnvPipelineReapDeadAfter    = "PRISM_PIPELINE_REAP_DEAD_AFTER"
	EnvPipelineReapInterval     = "PRISM_PIPELINE_REAP_INTERVAL"
)

// PipelineConfig controls batch sizing, claim tolerance, retries, and the reaper.
type PipelineConfig struct {
	BatchWorkers     int    `toml:"batch_workers"`
	ClaimGiveUp      int    `toml:"claim_give_up"`
	ParseRetries     int    `toml:"parse_retries"`
	BreakerThreshold int    `toml:"breaker_threshold"`
	ReapStuckAfter   string `toml:"reap_stuck_after"`
	ReapDeadAfter    string `toml:"reap_dead_after"`
	ReapInterval     string `toml:"reap_interval"`
}

// ReapStuckAfterDuration returns ReapStuckAfter as a time.Duration.
func (c *PipelineConfig) ReapStuckAfterDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReapStuckAfter)
	return d
}

// ReapDeadAfterDuration returns ReapDeadAfter as a time.Duration.
func (c *PipelineConfig) ReapDeadAfterDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReapDeadAfter)
	return d
}

// ReapIntervalDuration returns ReapInterval as a time.Duration.
func (c *PipelineConfig) ReapIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReapInterval)
	return d
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.BatchWorkers != 0 {
		c.BatchWorkers = overlay.BatchWorkers
	}
	if overlay.ClaimGiveUp != 0 {
		c.ClaimGiveUp = overlay.ClaimGiveUp
	}
	if overlay.ParseRetries != 0 {
		c.ParseRetries = overlay.ParseRetries
	}
	if overlay.BreakerThreshold != 0 {
		c.BreakerThreshold = overlay.BreakerThreshold
	}
	if overlay.ReapStuckAfter != "" {
		c.ReapStuckAfter = overlay.ReapStuckAfter
	}
	if overlay.ReapDeadAfter != "" {
		c.ReapDeadAfter = overlay.ReapDeadAfter
	}
	if overlay.ReapInterval != "" {
		c.ReapInterval = overlay.ReapInterval
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *PipelineConfig) loadDefaults() {
	if c.BatchWorkers == 0 {
		c.BatchWorkers = 4
	}
	if c.ClaimGiveUp == 0 {
		c.ClaimGiveUp = 3
	}
	if c.ParseRetries == 0 {
		c.ParseRetries = 2
	}
	if c.BreakerThreshold == 0 {
		c.BreakerThreshold = 3
	}
	if c.ReapStuckAfter == "" {
		c.ReapStuckAfter = "2h"
	}
	if c.ReapDeadAfter == "" {
		c.ReapDeadAfter = "8h"
	}
	if c.ReapInterval == "" {
		c.ReapInterval = "15m"
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineBatchWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchWorkers = n
		}
	}
	if v := os.Getenv(EnvPipelineClaimGiveUp); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ClaimGiveUp = n
		}
	}
	if v := os.Getenv(EnvPipelineParseRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ParseRetries = n
		}
	}
	if v := os.Getenv(EnvPipelineBreakerThreshold); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BreakerThreshold = n
		}
	}
	if v := os.Getenv(EnvPipelineReapStuckAfter); v != "" {
		c.ReapStuckAfter = v
	}
	if v := os.Getenv(EnvPipelineReapDeadAfter); v != "" {
		c.ReapDeadAfter = v
	}
	if v := os.Getenv(EnvPipelineReapInterval); v != "" {
		c.ReapInterval = v
	}
}

func (c *PipelineConfig) validate() error {
	if c.BatchWorkers < 1 {
		return fmt.Errorf("batch_workers must be positive")
	}
	if c.ClaimGiveUp < 1 {
		return fmt.Errorf("claim_give_up must be positive")
	}
	stuck, err := time.ParseDuration(c.ReapStuckAfter)
	if err != nil {
		return fmt.Errorf("invalid reap_stuck_after: %w", err)
	}
	dead, err := time.ParseDuration(c.ReapDeadAfter)
	if err != nil {
		return fmt.Errorf("invalid reap_dead_after: %w", err)
	}
	if dead <= stuck {
		return fmt.Errorf("reap_dead_after must exceed reap_stuck_after")
	}
	if _, err := time.ParseDuration(c.ReapInterval); err != nil {
		return fmt.Errorf("invalid reap_interval: %w", err)
	}
	return nil
}
