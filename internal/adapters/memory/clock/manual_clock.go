package clock

import (
	"sync"
	"time"
)

// ManualClock is a controllable clock for tests.
// Every call to Now advances the clock by Step, so consecutive signups get distinct timestamps.
type ManualClock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start.UTC(), Step: time.Second}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.Step)
	return t
}
