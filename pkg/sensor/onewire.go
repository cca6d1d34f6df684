package sensor

import (
	"fmt"
	"log"
	"sync"

	"github.com/itohio/gowhr/pkg/probe"
	"periph.io/x/conn/v3/onewire"
	"periph.io/x/conn/v3/onewire/onewirereg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ds18b20"
)

// DefaultResolution is the DS18B20 power-on resolution in bits.
const DefaultResolution = 12

// OneWireProbes reads DS18B20 probes by their fixed addresses. Probes that
// cannot be set up are kept out of the device table and read as errors, so
// the reporter prints the disconnected value for them.
type OneWireProbes struct {
	mu         sync.Mutex
	bus        onewire.Bus
	closer     onewire.BusCloser
	resolution int
	devs       map[probe.Address]*ds18b20.Dev
}

// NewOneWireProbes opens the named 1-Wire bus ("" picks the first one).
func NewOneWireProbes(busName string, resolution int, addrs []probe.Address) (*OneWireProbes, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	bus, err := onewirereg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open onewire: %w", err)
	}
	p := newOneWireProbes(bus, resolution, addrs)
	p.closer = bus
	return p, nil
}

func newOneWireProbes(bus onewire.Bus, resolution int, addrs []probe.Address) *OneWireProbes {
	if resolution < 9 || resolution > 12 {
		resolution = DefaultResolution
	}
	p := &OneWireProbes{
		bus:        bus,
		resolution: resolution,
		devs:       make(map[probe.Address]*ds18b20.Dev, len(addrs)),
	}
	for _, addr := range addrs {
		if !addr.Valid() {
			log.Printf("Probe %s has a bad CRC, it will read as disconnected", addr)
			continue
		}
		dev, err := ds18b20.New(bus, OneWireAddress(addr), resolution)
		if err != nil {
			log.Printf("Probe %s not available: %v", addr, err)
			continue
		}
		p.devs[addr] = dev
	}
	return p
}

// RequestTemperatures starts a conversion on every probe and waits for it.
func (p *OneWireProbes) RequestTemperatures() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ds18b20.ConvertAll(p.bus, p.resolution); err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	return nil
}

// TempF reads the last conversion of the addressed probe.
func (p *OneWireProbes) TempF(addr probe.Address) (float32, error) {
	p.mu.Lock()
	dev, ok := p.devs[addr]
	p.mu.Unlock()
	if !ok {
		return probe.DisconnectedF, fmt.Errorf("%w %s", ErrUnknownProbe, addr)
	}

	t, err := dev.LastTemp()
	if err != nil {
		return probe.DisconnectedF, fmt.Errorf("read %s: %w", addr, err)
	}
	return probe.CToF(celsius(t)), nil
}

// Close releases the bus if this reader opened it.
func (p *OneWireProbes) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

func celsius(t physic.Temperature) float32 {
	return float32(float64(t-physic.ZeroCelsius) / float64(physic.Celsius))
}
