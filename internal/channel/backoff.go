package channel

import "time"

// retryPolicy tracks the attempt counter and computes reconnection delays.
// The delay for the n-th scheduled retry is initial << n. There is no cap
// and no jitter: callers choosing a large retry budget accept a large
// maximum delay.
type retryPolicy struct {
	initial    time.Duration
	maxRetries int
	attempt    int
}

// exhausted reports whether the retry budget is spent.
func (p *retryPolicy) exhausted() bool {
	return p.attempt >= p.maxRetries
}

// next returns the delay before the next attempt and consumes one retry
// from the budget. Callers must check exhausted first.
func (p *retryPolicy) next() time.Duration {
	delay := p.initial << uint(p.attempt)
	p.attempt++

	return delay
}

// reset restores the full budget. Called on every successful open, so
// backoff restarts from the base delay rather than growing monotonically
// across the client's lifetime.
func (p *retryPolicy) reset() {
	p.attempt = 0
}
