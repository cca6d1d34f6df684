package sensor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/itohio/gowhr/pkg/probe"
	"github.com/itohio/gowhr/pkg/tach"
)

// StaticAnalog always reads the same value.
type StaticAnalog int

// Read returns the value.
func (s StaticAnalog) Read() (int, error) { return int(s), nil }

// FakeAnalog is a random walk around a level, clamped to [0, Max].
type FakeAnalog struct {
	mu    sync.Mutex
	rng   *rand.Rand
	level float64
	step  float64
	max   int
}

// NewFakeAnalog creates a random walk starting at level that moves by at most
// step per read.
func NewFakeAnalog(level, step float64, max int) *FakeAnalog {
	if max <= 0 {
		max = 4095
	}
	return &FakeAnalog{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		level: level,
		step:  step,
		max:   max,
	}
}

// Read advances the walk and returns the new level.
func (f *FakeAnalog) Read() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.level += (f.rng.Float64()*2 - 1) * f.step
	if f.level < 0 {
		f.level = 0
	} else if f.level > float64(f.max) {
		f.level = float64(f.max)
	}
	return int(f.level + 0.5), nil
}

// FakeThermometers simulates addressed probes. Each conversion request moves
// every temperature by up to Noise degrees.
type FakeThermometers struct {
	mu      sync.Mutex
	rng     *rand.Rand
	temps   map[probe.Address]float32
	failing map[probe.Address]bool
	noise   float32
}

// NewFakeThermometers creates probes at the given temperatures (°F).
func NewFakeThermometers(noise float32) *FakeThermometers {
	return &FakeThermometers{
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		temps:   make(map[probe.Address]float32),
		failing: make(map[probe.Address]bool),
		noise:   noise,
	}
}

// Set places a probe on the bus at temperature f.
func (t *FakeThermometers) Set(addr probe.Address, f float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.temps[addr] = f
}

// Fail makes reads of addr fail until cleared.
func (t *FakeThermometers) Fail(addr probe.Address, fail bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failing[addr] = fail
}

// RequestTemperatures applies the simulated drift.
func (t *FakeThermometers) RequestTemperatures() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.noise == 0 {
		return nil
	}
	for addr, v := range t.temps {
		t.temps[addr] = v + (t.rng.Float32()*2-1)*t.noise
	}
	return nil
}

// TempF returns the simulated temperature of addr.
func (t *FakeThermometers) TempF(addr probe.Address) (float32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failing[addr] {
		return probe.DisconnectedF, fmt.Errorf("read %s: crc mismatch", addr)
	}
	v, ok := t.temps[addr]
	if !ok {
		return probe.DisconnectedF, fmt.Errorf("%w %s", ErrUnknownProbe, addr)
	}
	return v, nil
}

// Shaft simulates a rotating shaft with one falling edge per revolution. It
// owns a manual clock and drives the tracker's transition handler itself.
type Shaft struct {
	mu      sync.Mutex
	rng     *rand.Rand
	clock   *tach.ManualClock
	tracker *tach.Tracker
	rpm     float64
	jitter  float64
}

// NewShaft creates a shaft turning at rpm. jitter is the relative spread of
// each revolution's period (0.02 = ±2%).
func NewShaft(rpm, jitter float64) *Shaft {
	clk := &tach.ManualClock{}
	return &Shaft{
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		clock:   clk,
		tracker: tach.NewTracker(clk),
		rpm:     rpm,
		jitter:  jitter,
	}
}

// Tracker returns the tracker fed by the shaft.
func (s *Shaft) Tracker() *tach.Tracker { return s.tracker }

// SetRPM changes the simulated speed. Zero or negative stops the shaft.
func (s *Shaft) SetRPM(rpm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rpm = rpm
}

// Spin advances the clock by n revolutions, firing one transition each.
func (s *Shaft) Spin(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rpm <= 0 {
		return
	}
	for range n {
		period := tach.MicrosPerMinute / s.rpm
		if s.jitter > 0 {
			period *= 1 + (s.rng.Float64()*2-1)*s.jitter
		}
		if period < 1 {
			period = 1
		}
		s.clock.Advance(uint32(period))
		s.tracker.OnTransition()
	}
}

// Revolution returns the wall time of one revolution at rpm, at least 1ms.
// A stopped shaft ticks once a second.
func Revolution(rpm float64) time.Duration {
	if rpm <= 0 {
		return time.Second
	}
	return max(time.Duration(float64(time.Minute)/rpm), time.Millisecond)
}

// Run spins one revolution per tick until ctx is done.
func (s *Shaft) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Spin(1)
		}
	}
}
