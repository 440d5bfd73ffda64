// Package models holds the JSON documents the DietlyPlans API reads and writes
// outside of the plan payloads themselves.
package models

import "time"

// HealthStatus is the coarse state reported by the ops endpoints.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

func (s HealthStatus) rank() int {
	switch s {
	case HealthStatusFail:
		return 2
	case HealthStatusDegraded:
		return 1
	}
	return 0
}

// Worse returns whichever of s and other is less healthy.
func (s HealthStatus) Worse(other HealthStatus) HealthStatus {
	if other.rank() > s.rank() {
		return other
	}
	return s
}

// Timestamp serializes as RFC 3339 in UTC, second precision.
type Timestamp time.Time

// TimestampPtr converts t, returning nil for nil.
func TimestampPtr(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	ts := Timestamp(*t)
	return &ts
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return time.Time(t).UTC().Truncate(time.Second).MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var parsed time.Time
	if err := parsed.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}
