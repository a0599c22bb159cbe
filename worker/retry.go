package worker

import "time"

// RetryPolicy decides when a failed send should be attempted again. attempt
// is the number of failed attempts so far (>= 1). The policy is consulted by
// the worker only; the enrollment state machine never sees it.
type RetryPolicy interface {
	NextRetry(attempt int) (time.Duration, bool)
}

// FixedBackoff retries a fixed number of times with a constant delay.
type FixedBackoff struct {
	Delay       time.Duration
	MaxAttempts int
}

func (p FixedBackoff) NextRetry(attempt int) (time.Duration, bool) {
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	return p.Delay, true
}

// DefaultRetryPolicy spaces retries out enough that a flapping SMTP relay
// doesn't burn through attempts in one outage.
var DefaultRetryPolicy RetryPolicy = FixedBackoff{Delay: 4 * time.Hour, MaxAttempts: 3}
