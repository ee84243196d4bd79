package webhook_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/auditoria/auditoria/pkg/webhook"
)

func TestExponentialBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		backoff webhook.ExponentialBackoff
		want    []time.Duration
	}{
		{
			name:    "defaults",
			backoff: webhook.ExponentialBackoff{},
			want:    []time.Duration{0, time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second},
		},
		{
			name: "capped",
			backoff: webhook.ExponentialBackoff{
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
				Multiplier:      3,
			},
			want: []time.Duration{0, 500 * time.Millisecond, 1500 * time.Millisecond, 4500 * time.Millisecond, 5 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for attempt, want := range tt.want {
				assert.Equal(t, want, tt.backoff.NextInterval(attempt), "attempt %d", attempt)
			}
		})
	}
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	t.Parallel()

	b := webhook.ExponentialBackoff{InitialInterval: time.Second, JitterFactor: 0.2}
	for range 50 {
		d := b.NextInterval(1)
		assert.GreaterOrEqual(t, d, 800*time.Millisecond)
		assert.LessOrEqual(t, d, 1200*time.Millisecond)
	}
}

func TestLinearAndFixedBackoff(t *testing.T) {
	t.Parallel()

	linear := webhook.LinearBackoff{Interval: 2 * time.Second, MaxInterval: 5 * time.Second}
	assert.Equal(t, time.Duration(0), linear.NextInterval(0))
	assert.Equal(t, 2*time.Second, linear.NextInterval(1))
	assert.Equal(t, 4*time.Second, linear.NextInterval(2))
	assert.Equal(t, 5*time.Second, linear.NextInterval(3))

	fixed := webhook.FixedBackoff{Interval: 3 * time.Second}
	assert.Equal(t, time.Duration(0), fixed.NextInterval(0))
	assert.Equal(t, 3*time.Second, fixed.NextInterval(1))
	assert.Equal(t, 3*time.Second, fixed.NextInterval(7))
}

func TestDefaultBackoffStrategy(t *testing.T) {
	t.Parallel()

	s := webhook.DefaultBackoffStrategy()
	d := s.NextInterval(1)
	assert.GreaterOrEqual(t, d, 900*time.Millisecond)
	assert.LessOrEqual(t, d, 1100*time.Millisecond)
	assert.LessOrEqual(t, s.NextInterval(20), 30*time.Second)
}
