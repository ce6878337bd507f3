package tasks

import (
	"time"

	appconfig "github.com/mrlokans/lexora/internal/config"
)

// Config holds task queue configuration.
type Config struct {
	Workers         int
	MaxRetries      int
	RetryDelay      time.Duration
	Timeout         time.Duration
	ReleaseAfter    time.Duration
	CleanupInterval time.Duration
}

// FromConfig builds a task queue configuration from the application
// config, filling in sane floors for zero values.
func FromConfig(cfg appconfig.Tasks) Config {
	c := Config{
		Workers:         cfg.Workers,
		MaxRetries:      cfg.MaxRetries,
		RetryDelay:      cfg.RetryDelay,
		Timeout:         cfg.TaskTimeout,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = 1
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Minute
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Minute
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = 15 * time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Hour
	}
	return c
}
