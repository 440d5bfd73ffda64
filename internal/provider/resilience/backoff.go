package resilience

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// LinearBackOff waits Unit multiplied by the attempt number: 1x, 2x, 3x...
// It implements backoff.BackOff so it composes with backoff.WithContext and
// backoff.WithMaxRetries.
type LinearBackOff struct {
	Unit    time.Duration
	attempt int
}

var _ backoff.BackOff = (*LinearBackOff)(nil)

// NewLinearBackOff creates a linear policy with the given step.
func NewLinearBackOff(unit time.Duration) *LinearBackOff {
	return &LinearBackOff{Unit: unit}
}

// NextBackOff returns the wait before the next attempt.
func (b *LinearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.Unit * time.Duration(b.attempt)
}

// Reset restarts the sequence.
func (b *LinearBackOff) Reset() {
	b.attempt = 0
}
