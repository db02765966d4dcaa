// Package system stamps fetched images with wall-clock time.
package system

import (
	"sync"
	"time"
)

// Clock implements animal.Clock. Readings are UTC, truncated to microseconds
// so they survive a round trip through the SQL stores, and never run
// backwards even when the wall clock is stepped.
type Clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// New creates a Clock backed by time.Now.
func New() *Clock {
	return &Clock{now: time.Now}
}

// Now returns the current UTC time, clamped to the previous reading.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC().Truncate(time.Microsecond)
	if t.Before(c.last) {
		return c.last
	}
	c.last = t
	return t
}
