package http

import "time"

// rateLimiter caps inbound commands per window on a single connection.
// All methods are called from that connection's read loop, so the counter
// needs no locking; the window rolls over lazily on the next allow call.
type rateLimiter struct {
	limit   int
	counter int
	reset   *time.Ticker
}

func newRateLimiter(limit int) *rateLimiter {
	return newRateLimiterEvery(limit, time.Minute)
}

func newRateLimiterEvery(limit int, window time.Duration) *rateLimiter {
	if limit <= 0 {
		return &rateLimiter{}
	}
	return &rateLimiter{
		limit: limit,
		reset: time.NewTicker(window),
	}
}

// allow consumes one slot in the current window, opening a fresh window
// first if the ticker has fired since the last call.
func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	select {
	case <-r.reset.C:
		r.counter = 0
	default:
	}
	r.counter++
	return r.counter <= r.limit
}

func (r *rateLimiter) stop() {
	if r == nil || r.reset == nil {
		return
	}
	r.reset.Stop()
}
