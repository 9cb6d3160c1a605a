// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"time"

	"golang.org/x/time/rate"
)

// NewPacer returns a limiter that admits the first call at once and every
// later call no sooner than delay after the previous one. A non-positive
// delay disables pacing.
func NewPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
