package service

import (
	"sync"
	"time"
)

// ledgerClock issues commit timestamps that never go backwards, even if the
// wall clock does.
type ledgerClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newLedgerClock(now func() time.Time) *ledgerClock {
	if now == nil {
		now = time.Now
	}
	return &ledgerClock{now: now}
}

// Next returns max(now, last issued, floor), truncated to microseconds so the
// value survives a round trip through Postgres unchanged.
func (c *ledgerClock) Next(floor *time.Time) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if t.Before(c.last) {
		t = c.last
	}
	if floor != nil && t.Before(floor.UTC()) {
		t = floor.UTC()
	}
	c.last = t
	return t
}
