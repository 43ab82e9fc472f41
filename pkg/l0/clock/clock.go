// Package clock abstracts the monotonic time source used by the firmware.
package clock

import (
	"sync"
	"time"
)

// Clock provides current time and short blocking delays.
type Clock interface {
	Now() time.Time
	Sleep(time.Duration)
}

type system struct{}

// System is the wall clock of the host.
var System Clock = system{}

func (system) Now() time.Time        { return time.Now() }
func (system) Sleep(d time.Duration) { time.Sleep(d) }

// Manual is a Clock which only moves when told to.
// Sleep advances the clock without blocking.
type Manual struct {
	now  time.Time
	lock sync.Mutex
}

// NewManual creates a Manual clock starting at t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

// Now implements Clock.
func (m *Manual) Now() time.Time {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.now
}

// Sleep implements Clock.
func (m *Manual) Sleep(d time.Duration) {
	m.Advance(d)
}

// Advance moves the clock forward.
func (m *Manual) Advance(d time.Duration) {
	m.lock.Lock()
	m.now = m.now.Add(d)
	m.lock.Unlock()
}
