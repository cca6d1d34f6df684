package sensor

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

const (
	pointerConv   = 0x00
	pointerConfig = 0x01

	// DefaultADS1115Address is the ADC address with ADDR tied to GND.
	DefaultADS1115Address = 0x48
)

// ADS1115 reads one single-ended channel of a TI ADS1115 as the water level.
// The raw conversion count is returned unscaled; negative counts read as 0.
type ADS1115 struct {
	mu         sync.Mutex
	dev        *i2c.Dev
	bus        i2c.BusCloser
	channel    int
	sampleRate int
}

// NewADS1115 opens the named I²C bus ("" picks the first one) and talks to
// the converter at addr.
func NewADS1115(busName string, addr uint16, channel, sampleRate int) (*ADS1115, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c: %w", err)
	}
	a, err := newADS1115(bus, addr, channel, sampleRate)
	if err != nil {
		bus.Close()
		return nil, err
	}
	a.bus = bus
	return a, nil
}

func newADS1115(bus i2c.Bus, addr uint16, channel, sampleRate int) (*ADS1115, error) {
	if channel < 0 || channel > 3 {
		return nil, fmt.Errorf("invalid channel %d", channel)
	}
	if sampleRate <= 0 {
		sampleRate = 128
	}
	if addr == 0 {
		addr = DefaultADS1115Address
	}
	return &ADS1115{
		dev:        &i2c.Dev{Addr: addr, Bus: bus},
		channel:    channel,
		sampleRate: sampleRate,
	}, nil
}

// Read starts a single-shot conversion and returns its result.
func (a *ADS1115) Read() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	msb, lsb, err := configForChannel(a.channel, a.sampleRate)
	if err != nil {
		return 0, err
	}
	if err := a.dev.Tx([]byte{pointerConfig, msb, lsb}, nil); err != nil {
		return 0, fmt.Errorf("write config: %w", err)
	}

	// wait for conversion
	delayMs := int(1000.0/float64(a.sampleRate)) + 2
	time.Sleep(time.Duration(delayMs) * time.Millisecond)

	buf := make([]byte, 2)
	if err := a.dev.Tx([]byte{pointerConv}, buf); err != nil {
		return 0, fmt.Errorf("read conv: %w", err)
	}
	raw := int16(buf[0])<<8 | int16(buf[1])
	if raw < 0 {
		raw = 0
	}
	return int(raw), nil
}

// Close releases the bus if this reader opened it.
func (a *ADS1115) Close() error {
	if a.bus != nil {
		return a.bus.Close()
	}
	return nil
}

// configForChannel builds the config register for a single-shot, single-ended
// conversion at ±4.096V full scale with the comparator disabled.
func configForChannel(channel, sampleRate int) (byte, byte, error) {
	if channel < 0 || channel > 3 {
		return 0, 0, fmt.Errorf("invalid channel %d", channel)
	}
	mux := byte(0x4 + channel)
	pga := byte(0x1)

	var dr byte
	switch sampleRate {
	case 8:
		dr = 0x0
	case 16:
		dr = 0x1
	case 32:
		dr = 0x2
	case 64:
		dr = 0x3
	case 250:
		dr = 0x5
	case 475:
		dr = 0x6
	case 860:
		dr = 0x7
	default:
		dr = 0x4 // 128 SPS
	}

	var config uint16 = 0x8000 // start a conversion
	config |= uint16(mux) << 12
	config |= uint16(pga) << 9
	config |= 1 << 8 // single-shot
	config |= uint16(dr) << 5
	config |= 0x3
	return byte(config >> 8), byte(config & 0xFF), nil
}
