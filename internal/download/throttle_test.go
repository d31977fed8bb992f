package download

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectThrottling(t *testing.T) {
	m := NewThrottleManager(5*time.Second, 2, 3)

	tests := []struct {
		msg      string
		expected bool
	}{
		{"ERROR: HTTP Error 429: Too Many Requests", true},
		{"Too Many Requests", true},
		{"YouTube is THROTTLING this client", true},
		{"rate limit exceeded", true},
		{"please slow down", true},
		{"Temporary failure in name resolution", true},
		{"ERROR: Video unavailable", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.DetectThrottling(tt.msg))
		})
	}
}

func TestThrottleManager_RetryCeiling(t *testing.T) {
	for _, max := range []int{0, 1, 3, 10} {
		m := NewThrottleManager(time.Second, 2, max)

		for i := 0; i < max; i++ {
			assert.True(t, m.ShouldRetry(), "max=%d after %d marks", max, i)
			m.MarkThrottled()
		}
		assert.False(t, m.ShouldRetry(), "max=%d after exactly max marks", max)

		m.MarkThrottled()
		assert.Equal(t, max, m.State().RetryCount, "retry count must not exceed max")
	}
}

func TestThrottleManager_MarkAndReset(t *testing.T) {
	now := time.Unix(1700000000, 0)
	m := NewThrottleManager(time.Second, 2, 3)
	m.now = func() time.Time { return now }

	m.MarkThrottled()
	state := m.State()
	assert.True(t, state.IsThrottled)
	assert.Equal(t, 1, state.RetryCount)
	assert.Equal(t, now, state.LastThrottle)

	m.Reset()
	assert.Equal(t, ThrottleState{}, m.State())
	assert.True(t, m.ShouldRetry())
}

func TestThrottleManager_BackoffMonotonic(t *testing.T) {
	m := NewThrottleManager(5*time.Second, 2, 10)

	prev := m.DelayFor(0)
	assert.Equal(t, 5*time.Second, prev)
	capped := false
	for n := 1; n <= 20; n++ {
		d := m.DelayFor(n)
		assert.GreaterOrEqual(t, d, prev, "delay(%d) < delay(%d)", n, n-1)
		assert.LessOrEqual(t, d, MaxRetryDelay)
		if capped {
			assert.Equal(t, MaxRetryDelay, d)
		}
		if d == MaxRetryDelay {
			capped = true
		}
		prev = d
	}
	assert.True(t, capped)
	assert.Equal(t, MaxRetryDelay, m.DelayFor(1000))
}

func TestThrottleManager_RetryDelay(t *testing.T) {
	m := NewThrottleManager(5*time.Second, 2, 3)

	assert.Equal(t, 5*time.Second, m.RetryDelay())
	m.MarkThrottled()
	assert.Equal(t, 10*time.Second, m.RetryDelay())
	m.MarkThrottled()
	assert.Equal(t, 20*time.Second, m.RetryDelay())
}
