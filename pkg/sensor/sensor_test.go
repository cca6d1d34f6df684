package sensor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itohio/gowhr/pkg/probe"
	"github.com/itohio/gowhr/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

var testProbe = probe.MustParseAddress("28EA6471000000D1")

func TestConfigForChannel(t *testing.T) {
	msb, lsb, err := configForChannel(0, 128)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xC3, 0x83}, []byte{msb, lsb})

	msb, lsb, err = configForChannel(1, 128)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xD3, 0x83}, []byte{msb, lsb})

	msb, lsb, err = configForChannel(0, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xC3, 0x03}, []byte{msb, lsb})

	_, _, err = configForChannel(9, 128)
	assert.Error(t, err)
}

func TestADS1115_Read(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x48, W: []byte{pointerConfig, 0xC3, 0xE3}},
			{Addr: 0x48, W: []byte{pointerConv}, R: []byte{0x07, 0xFF}},
			{Addr: 0x48, W: []byte{pointerConfig, 0xC3, 0xE3}},
			{Addr: 0x48, W: []byte{pointerConv}, R: []byte{0xFF, 0xF0}},
		},
	}
	a, err := newADS1115(bus, 0, 0, 860)
	require.NoError(t, err)

	v, err := a.Read()
	require.NoError(t, err)
	assert.Equal(t, 2047, v)

	v, err = a.Read()
	require.NoError(t, err)
	assert.Equal(t, 0, v, "negative counts clamp to zero")

	require.NoError(t, bus.Close())
}

func TestNewADS1115_InvalidChannel(t *testing.T) {
	_, err := newADS1115(&i2ctest.Playback{}, 0x48, 4, 128)
	assert.Error(t, err)
}

func TestOneWireAddress_RoundTrip(t *testing.T) {
	ow := OneWireAddress(testProbe)
	assert.Equal(t, byte(probe.FamilyDS18B20), byte(ow&0xFF))
	assert.Equal(t, byte(0xD1), byte(ow>>56))
	assert.Equal(t, testProbe, ProbeAddress(ow))
}

func TestEdgeWatcher_CallsHandlerPerEdge(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO3", EdgesChan: make(chan gpio.Level)}

	var edges atomic.Int32
	w, err := NewEdgeWatcherPin(pin, func() { edges.Add(1) })
	require.NoError(t, err)
	w.poll = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for range 3 {
		select {
		case pin.EdgesChan <- gpio.Low:
		case <-time.After(time.Second):
			t.Fatal("watcher did not consume edge")
		}
	}
	assert.Eventually(t, func() bool { return edges.Load() == 3 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestFakeAnalog_StaysInRange(t *testing.T) {
	f := NewFakeAnalog(10, 50, 100)
	for range 200 {
		v, err := f.Read()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, 100)
	}

	v, err := StaticAnalog(321).Read()
	require.NoError(t, err)
	assert.Equal(t, 321, v)
}

func TestFakeThermometers(t *testing.T) {
	other := probe.MustParseAddress("28D6556E000000AA")
	missing := probe.MustParseAddress("2800000000000000")

	ft := NewFakeThermometers(0)
	ft.Set(testProbe, 70.5)
	ft.Set(other, 65)
	ft.Fail(other, true)

	require.NoError(t, ft.RequestTemperatures())

	v, err := ft.TempF(testProbe)
	require.NoError(t, err)
	assert.Equal(t, float32(70.5), v)

	_, err = ft.TempF(other)
	assert.Error(t, err)

	_, err = ft.TempF(missing)
	assert.ErrorIs(t, err, ErrUnknownProbe)

	r := report.NewReporter(nil, StaticAnalog(1), ft, []probe.Address{testProbe, other})
	rep := r.Collect()
	assert.Equal(t, []float64{70.5, float64(probe.DisconnectedF)}, rep.Temps)
}

func TestShaft_DrivesTracker(t *testing.T) {
	s := NewShaft(600, 0)
	s.Spin(1)
	assert.False(t, s.Tracker().Snapshot().Valid)

	s.Spin(5)
	assert.Equal(t, float32(600), s.Tracker().Rate())
	assert.Equal(t, uint32(6), s.Tracker().Snapshot().Count)

	s.SetRPM(1200)
	s.Spin(1)
	assert.Equal(t, float32(1200), s.Tracker().Rate())

	s.SetRPM(0)
	s.Spin(3)
	assert.Equal(t, uint32(7), s.Tracker().Snapshot().Count)
}

func TestShaft_JitterBounded(t *testing.T) {
	s := NewShaft(1000, 0.1)
	s.Spin(50)
	rate := s.Tracker().Rate()
	assert.InDelta(t, 1000, rate, 1000*0.12)
}
