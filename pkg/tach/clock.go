package tach

import "time"

// Clock provides a free-running microsecond counter that wraps at 2^32.
type Clock interface {
	Micros() uint32
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() uint32

// Micros calls f.
func (f ClockFunc) Micros() uint32 { return f() }

// SinceStart returns a clock counting microseconds from the moment it was
// created. It wraps after roughly 71.6 minutes, like a 32-bit micros() timer.
func SinceStart() Clock {
	start := time.Now()
	return ClockFunc(func() uint32 {
		return uint32(time.Since(start).Microseconds())
	})
}

// ManualClock is a settable clock for simulations and tests.
type ManualClock struct {
	now uint32
}

// Micros returns the current value.
func (c *ManualClock) Micros() uint32 { return c.now }

// Set sets the current value.
func (c *ManualClock) Set(us uint32) { c.now = us }

// Advance moves the clock forward by us, wrapping at 2^32.
func (c *ManualClock) Advance(us uint32) { c.now += us }
