package http

import "time"

// rateLimiter caps sendMessage events per connection per minute. It is
// only touched from the connection's read loop, so no locking is needed.
type rateLimiter struct {
	limit       int
	counter     int
	windowStart time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{limit: limit, windowStart: time.Now()}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	now := time.Now()
	if now.Sub(r.windowStart) >= time.Minute {
		r.windowStart = now
		r.counter = 0
	}

	r.counter++
	return r.counter <= r.limit
}
