package session

import "time"

// DefaultReconnectDelay is the pause before a reconnect attempt.
const DefaultReconnectDelay = 3 * time.Second

// RetryPolicy decides whether and when to reconnect after a transient
// connection loss. attempt starts at zero.
type RetryPolicy interface {
	Next(attempt int) (time.Duration, bool)
}

// FixedDelay retries forever with a constant pause.
type FixedDelay struct {
	Delay time.Duration
}

func (f FixedDelay) Next(int) (time.Duration, bool) {
	if f.Delay <= 0 {
		return DefaultReconnectDelay, true
	}
	return f.Delay, true
}

// LimitedRetries gives up after Max reconnect attempts.
type LimitedRetries struct {
	Delay time.Duration
	Max   int
}

func (l LimitedRetries) Next(attempt int) (time.Duration, bool) {
	return l.Delay, attempt < l.Max
}
