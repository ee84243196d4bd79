package webhook

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy computes the delay before a retry. Attempt starts at 1 for
// the first retry. Implementations must be safe for concurrent use.
type BackoffStrategy interface {
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff grows the delay geometrically with optional jitter.
// Zero fields fall back to 1s initial, 30s cap, multiplier 2.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := cmpOr(e.InitialInterval, time.Second)
	ceiling := cmpOr(e.MaxInterval, 30*time.Second)
	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if e.JitterFactor > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.JitterFactor
	}
	if interval > float64(ceiling) {
		interval = float64(ceiling)
	}
	return time.Duration(interval)
}

// LinearBackoff returns Interval*attempt capped at MaxInterval.
type LinearBackoff struct {
	Interval    time.Duration
	MaxInterval time.Duration
}

func (l LinearBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := cmpOr(l.Interval, time.Second) * time.Duration(attempt)
	return min(delay, cmpOr(l.MaxInterval, 30*time.Second))
}

// FixedBackoff waits the same Interval before every retry.
type FixedBackoff struct {
	Interval time.Duration
}

func (f FixedBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// DefaultBackoffStrategy is exponential from 1s to 30s with 10% jitter.
func DefaultBackoffStrategy() BackoffStrategy {
	return ExponentialBackoff{
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
		JitterFactor:    0.1,
	}
}

func cmpOr(v, fallback time.Duration) time.Duration {
	if v == 0 {
		return fallback
	}
	return v
}
