// Package ratelimiter throttles requests with fixed-window counters kept in
// the key-value store.
//
// Every key gets Limit hits per Window. Counters live under
// "ratelimit:<key>:<window start>" and expire with their window, so with a
// Redis store all server instances share one budget. The HTTP middleware
// sets X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset on
// every checked response and answers 429 with Retry-After once the budget
// is spent.
//
//	limiter, err := ratelimiter.NewWindow(store, 60, time.Minute)
//	if err != nil {
//		return err
//	}
//	r.With(ratelimiter.Middleware(limiter, byClientIP)).Post("/webhook", h)
package ratelimiter
