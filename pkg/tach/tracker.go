package tach

import (
	"sync/atomic"

	"github.com/chewxy/math32"
)

// MicrosPerMinute converts an interval in microseconds into events per minute.
const MicrosPerMinute = 60_000_000.0

// Snapshot is a consistent copy of the tracker state.
type Snapshot struct {
	Last    uint32  // Clock reading of the most recent accepted transition (µs)
	Rate    float32 // Events per minute derived from the most recent interval
	Valid   bool    // True once at least one full interval was observed
	Count   uint32  // Accepted transitions, including the baseline
	Dropped uint32  // Transitions discarded because the interval was zero
}

// Tracker converts falling-edge transitions into an instantaneous rate.
//
// OnTransition is the only writer and must be called from a single context at
// a time (an interrupt handler or one goroutine). Any number of readers may
// call Rate, LastTransition or Snapshot concurrently with it. The writer never
// blocks or allocates; readers retry instead.
type Tracker struct {
	clock Clock

	seq     atomic.Uint32 // odd while an update is in progress
	last    atomic.Uint32
	rate    atomic.Uint32 // float32 bits
	count   atomic.Uint32
	dropped atomic.Uint32
	primed  atomic.Bool
}

// NewTracker creates a tracker reading timestamps from clock.
// The rate starts at 0 meaning no interval observed yet.
func NewTracker(clock Clock) *Tracker {
	if clock == nil {
		clock = SinceStart()
	}
	return &Tracker{clock: clock}
}

// OnTransition records a qualifying edge. It is safe to call from interrupt
// context. The rate is divided in float64 and narrowed once.
func (t *Tracker) OnTransition() {
	now := t.clock.Micros()

	if !t.primed.Load() {
		t.begin()
		t.last.Store(now)
		t.count.Add(1)
		t.primed.Store(true)
		t.end()
		return
	}

	// Unsigned subtraction stays correct across one wrap of the clock.
	delta := now - t.last.Load()
	if delta == 0 {
		t.begin()
		t.dropped.Add(1)
		t.end()
		return
	}

	t.begin()
	t.rate.Store(math32.Float32bits(float32(MicrosPerMinute / float64(delta))))
	t.last.Store(now)
	t.count.Add(1)
	t.end()
}

func (t *Tracker) begin() { t.seq.Add(1) }
func (t *Tracker) end()   { t.seq.Add(1) }

// Rate returns the most recent rate in events per minute.
func (t *Tracker) Rate() float32 {
	return math32.Float32frombits(t.rate.Load())
}

// LastTransition returns the clock reading of the most recent accepted transition.
func (t *Tracker) LastTransition() uint32 {
	return t.last.Load()
}

// Snapshot copies all fields as one consistent set.
func (t *Tracker) Snapshot() Snapshot {
	for {
		s1 := t.seq.Load()
		if s1&1 != 0 {
			continue
		}
		snap := Snapshot{
			Last:    t.last.Load(),
			Rate:    math32.Float32frombits(t.rate.Load()),
			Count:   t.count.Load(),
			Dropped: t.dropped.Load(),
		}
		if t.seq.Load() == s1 {
			snap.Valid = snap.Count >= 2
			return snap
		}
	}
}
