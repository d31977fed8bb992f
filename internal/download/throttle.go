package download

import (
	"math"
	"strings"
	"time"
)

// MaxRetryDelay caps the throttle backoff
const MaxRetryDelay = 300 * time.Second

// throttleIndicators are matched case-insensitively against error text
var throttleIndicators = []string{
	"throttling",
	"429",
	"too many requests",
	"rate limit",
	"slow down",
	"temporary failure",
}

// ThrottleState is the rate-limit bookkeeping of one run
type ThrottleState struct {
	IsThrottled  bool
	RetryCount   int
	LastThrottle time.Time
}

// ThrottleManager classifies rate-limit errors and computes the backoff.
// It is used from a single goroutine.
type ThrottleManager struct {
	state      ThrottleState
	baseDelay  time.Duration
	multiplier float64
	maxRetries int
	now        func() time.Time
}

// NewThrottleManager creates a manager with a fresh state
func NewThrottleManager(baseDelay time.Duration, multiplier float64, maxRetries int) *ThrottleManager {
	if multiplier < 1 {
		multiplier = 1
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &ThrottleManager{
		baseDelay:  baseDelay,
		multiplier: multiplier,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// DetectThrottling reports whether msg looks like a rate-limit error
func (m *ThrottleManager) DetectThrottling(msg string) bool {
	return IsThrottleMessage(msg)
}

// IsThrottleMessage reports whether msg contains a rate-limit indicator
func IsThrottleMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, indicator := range throttleIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// MarkThrottled records a throttling event. RetryCount never exceeds the
// configured maximum.
func (m *ThrottleManager) MarkThrottled() {
	m.state.IsThrottled = true
	if m.state.RetryCount < m.maxRetries {
		m.state.RetryCount++
	}
	m.state.LastThrottle = m.now()
}

// ShouldRetry reports whether another attempt is allowed
func (m *ThrottleManager) ShouldRetry() bool {
	return m.state.RetryCount < m.maxRetries
}

// RetryDelay returns the backoff for the current retry count
func (m *ThrottleManager) RetryDelay() time.Duration {
	return m.DelayFor(m.state.RetryCount)
}

// DelayFor returns min(MaxRetryDelay, base * multiplier^retryCount)
func (m *ThrottleManager) DelayFor(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	delay := float64(m.baseDelay) * math.Pow(m.multiplier, float64(retryCount))
	if delay >= float64(MaxRetryDelay) || math.IsInf(delay, 0) {
		return MaxRetryDelay
	}
	return time.Duration(delay)
}

// Reset clears the state after a fully successful attempt
func (m *ThrottleManager) Reset() {
	m.state = ThrottleState{}
}

// State returns a copy of the current state
func (m *ThrottleManager) State() ThrottleState {
	return m.state
}
