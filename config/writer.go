package config

import (
	"fmt"
	"time"
)

// WriterConfig tunes the asynchronous category writer.
type WriterConfig struct {
	// Source is written in the last column of every row. Defaults to the host name.
	Source string `json:"source"`
	// RetryAttempts bounds the append attempts when a file is locked.
	RetryAttempts int `json:"retry_attempts"`
	// RetryInitialMS is the first backoff delay in milliseconds.
	RetryInitialMS int `json:"retry_initial_ms"`
	// RetryMaxMS caps the backoff delay in milliseconds.
	RetryMaxMS int `json:"retry_max_ms"`
}

// SetDefaults applies sane defaults.
func (c *WriterConfig) SetDefaults() {
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 5
	}
	if c.RetryInitialMS == 0 {
		c.RetryInitialMS = 20
	}
	if c.RetryMaxMS == 0 {
		c.RetryMaxMS = 200
	}
}

// Validate checks the retry bounds.
func (c WriterConfig) Validate() error {
	if c.RetryAttempts < 1 || c.RetryAttempts > 20 {
		return fmt.Errorf("retry_attempts must be between 1 and 20")
	}
	if c.RetryInitialMS < 0 || c.RetryMaxMS < c.RetryInitialMS {
		return fmt.Errorf("retry_max_ms must not be below retry_initial_ms")
	}
	return nil
}

// RetryInitial returns RetryInitialMS as a duration.
func (c WriterConfig) RetryInitial() time.Duration {
	return time.Duration(c.RetryInitialMS) * time.Millisecond
}

// RetryMax returns RetryMaxMS as a duration.
func (c WriterConfig) RetryMax() time.Duration {
	return time.Duration(c.RetryMaxMS) * time.Millisecond
}
