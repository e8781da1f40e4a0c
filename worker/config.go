package worker

import (
	"time"

	"github.com/CPSCourse-TUM-HN/connecTUM/config"
)

const (
	DefaultPollInterval = 20 * time.Millisecond
	DefaultMaxWait      = 30 * time.Second
)

// WorkerConfig holds the timing of the command mailbox.
type WorkerConfig struct {
	// How often Await checks the mailbox.
	PollInterval time.Duration

	// How long Await waits for a reply before giving up.
	MaxWait time.Duration

	// Commands that may queue before Submit blocks.
	QueueSize int
}

// WorkerConfigFrom reads the mailbox timing from cfg.
func WorkerConfigFrom(cfg *config.Config) *WorkerConfig {
	return &WorkerConfig{
		PollInterval: cfg.GetDuration(config.ConfigPollInterval),
		MaxWait:      cfg.GetDuration(config.ConfigMaxWait),
		QueueSize:    16,
	}
}

// withDefaults returns a copy of c with unset or non-positive timings
// replaced by the defaults.
func (c *WorkerConfig) withDefaults() *WorkerConfig {
	out := *c
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	if out.MaxWait <= 0 {
		out.MaxWait = DefaultMaxWait
	}
	if out.QueueSize < 1 {
		out.QueueSize = 1
	}
	return &out
}
