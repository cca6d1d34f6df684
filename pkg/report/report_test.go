package report

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/itohio/gowhr/pkg/probe"
	"github.com/itohio/gowhr/pkg/tach"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	probe0 = probe.MustParseAddress("28EA6471000000D1")
	probe1 = probe.MustParseAddress("28D6556E000000AA")
)

type stubRate float32

func (s stubRate) Rate() float32 { return float32(s) }

type stubAnalog struct {
	value int
	err   error
}

func (s stubAnalog) Read() (int, error) { return s.value, s.err }

type stubBus struct {
	mu       sync.Mutex
	temps    map[probe.Address]float32
	failing  map[probe.Address]bool
	requests int
}

func (b *stubBus) RequestTemperatures() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests++
	return nil
}

func (b *stubBus) TempF(addr probe.Address) (float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing[addr] {
		return 0, errors.New("crc mismatch")
	}
	return b.temps[addr], nil
}

func TestCollect_PassesReadingsThrough(t *testing.T) {
	bus := &stubBus{temps: map[probe.Address]float32{probe0: 71.5, probe1: 68.25}}
	r := NewReporter(stubRate(60), stubAnalog{value: 2047}, bus, []probe.Address{probe0, probe1})

	rep := r.Collect()

	assert.Equal(t, 60.0, rep.RPM)
	assert.Equal(t, 2047, rep.WaterLevel)
	assert.Equal(t, []float64{71.5, 68.25}, rep.Temps)
	assert.Equal(t, 1, bus.requests)
	assert.False(t, rep.Timestamp.IsZero())
}

func TestCollect_WaterLevelIsUntransformed(t *testing.T) {
	for _, v := range []int{0, 1, 511, 1023, 4095, 65535} {
		r := NewReporter(stubRate(0), stubAnalog{value: v}, nil, nil)
		assert.Equal(t, v, r.Collect().WaterLevel)
	}
}

func TestCollect_SensorFailures(t *testing.T) {
	bus := &stubBus{
		temps:   map[probe.Address]float32{probe0: 70},
		failing: map[probe.Address]bool{probe1: true},
	}
	r := NewReporter(stubRate(120), stubAnalog{value: 99, err: errors.New("adc busy")}, bus, []probe.Address{probe0, probe1})

	rep := r.Collect()

	assert.Equal(t, 0, rep.WaterLevel)
	require.Len(t, rep.Temps, 2)
	assert.Equal(t, 70.0, rep.Temps[0])
	assert.True(t, probe.IsDisconnected(float32(rep.Temps[1])))
}

func TestCollect_NoBus(t *testing.T) {
	r := NewReporter(stubRate(1), nil, nil, []probe.Address{probe0})
	rep := r.Collect()
	require.Len(t, rep.Temps, 1)
	assert.Equal(t, float64(probe.DisconnectedF), rep.Temps[0])
}

func TestCollect_ReadsTrackerRate(t *testing.T) {
	clk := &tach.ManualClock{}
	tr := tach.NewTracker(clk)
	r := NewReporter(tr, stubAnalog{}, nil, nil)

	assert.Equal(t, 0.0, r.Collect().RPM)

	tr.OnTransition()
	clk.Advance(500_000)
	tr.OnTransition()

	assert.Equal(t, 120.0, r.Collect().RPM)
	assert.Equal(t, 120.0, r.Collect().RPM)
	assert.Equal(t, float32(120), tr.Rate())
}

func TestEmit_WritesBlock(t *testing.T) {
	bus := &stubBus{temps: map[probe.Address]float32{probe0: 71.6, probe1: 72.27}}
	r := NewReporter(stubRate(60), stubAnalog{value: 512}, bus, []probe.Address{probe0, probe1})

	var buf bytes.Buffer
	_, err := r.Emit(&buf)
	require.NoError(t, err)

	want := "RPM: 60.00\r\nWater Level: 512\r\nTemp sensor 0: 71.60\r\nTemp sensor 1: 72.27\r\n"
	assert.Equal(t, want, buf.String())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func TestRun_EmitsUntilCancelled(t *testing.T) {
	r := NewReporter(stubRate(60), stubAnalog{value: 1}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var out syncBuffer
	var mu sync.Mutex
	count := 0
	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx, 10*time.Millisecond, &out, func(Report) {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}()

	time.Sleep(55 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, count, 3)
}

func TestRun_RejectsNonPositivePeriod(t *testing.T) {
	r := NewReporter(stubRate(60), nil, nil, nil)
	for _, period := range []time.Duration{0, -time.Second} {
		var out bytes.Buffer
		err := r.Run(context.Background(), period, &out, nil)
		assert.ErrorIs(t, err, ErrBadPeriod)
		assert.Empty(t, out.String())
	}
}
