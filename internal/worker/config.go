// Package worker runs queued plan generation jobs.
package worker

import (
	"time"
)

// Config holds configuration for the generation worker.
type Config struct {
	// ProjectID is the Google Cloud project hosting the subscription.
	ProjectID string

	// SubscriptionName is the Pub/Sub subscription to receive from.
	SubscriptionName string

	// MaxOutstandingMessages bounds concurrent generations.
	// Default: 4
	MaxOutstandingMessages int

	// MaxExtension is how long a message lease may be extended.
	// Default: 10 minutes
	MaxExtension time.Duration

	// JobTimeout bounds a single generation, including all drafting attempts.
	// Default: 5 minutes
	JobTimeout time.Duration

	// MaxDeliveryAttempts drops a message whose handler still fails on
	// this delivery. Needs a dead letter policy on the subscription for
	// Pub/Sub to report attempts.
	// Default: 5
	MaxDeliveryAttempts int
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	return Config{
		MaxOutstandingMessages: 4,
		MaxExtension:           10 * time.Minute,
		JobTimeout:             5 * time.Minute,
		MaxDeliveryAttempts:    5,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxOutstandingMessages <= 0 {
		c.MaxOutstandingMessages = d.MaxOutstandingMessages
	}
	if c.MaxExtension <= 0 {
		c.MaxExtension = d.MaxExtension
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = d.JobTimeout
	}
	if c.MaxDeliveryAttempts == 0 {
		c.MaxDeliveryAttempts = d.MaxDeliveryAttempts
	}
	return c
}
