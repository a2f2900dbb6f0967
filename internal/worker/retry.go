package worker

import (
	"math"
	"time"
)

// RetryPolicy is an exponential backoff schedule.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
}

func (r RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if r.MaxRetries <= 0 {
		r.MaxRetries = d.MaxRetries
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = d.InitialDelay
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = d.MaxDelay
	}
	if r.BackoffFactor <= 1 {
		r.BackoffFactor = d.BackoffFactor
	}
	return r
}

// NextDelay returns the wait before the given 1-based attempt, capped at MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	r = r.withDefaults()

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	if delay > float64(r.MaxDelay) || math.IsInf(delay, 1) {
		return r.MaxDelay
	}
	return time.Duration(delay)
}
