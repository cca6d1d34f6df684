// Package sensor provides the monitor's input sources: periph.io drivers for
// Linux boards (GPIO edge interrupts, an ADS1115 ADC, DS18B20 probes on a
// 1-Wire bus) and simulated sources for development and tests.
package sensor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/itohio/gowhr/pkg/probe"
	"github.com/itohio/gowhr/pkg/report"
	"periph.io/x/conn/v3/onewire"
	"periph.io/x/host/v3"
)

// ErrUnknownProbe is returned for an address the bus was not set up with.
var ErrUnknownProbe = errors.New("unknown probe")

var (
	_ report.AnalogReader = (*ADS1115)(nil)
	_ report.AnalogReader = (*FakeAnalog)(nil)
	_ report.AnalogReader = StaticAnalog(0)
	_ report.Thermometers = (*OneWireProbes)(nil)
	_ report.Thermometers = (*FakeThermometers)(nil)
)

var (
	initOnce sync.Once
	initErr  error
)

// Init loads periph.io host drivers. It is safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			initErr = fmt.Errorf("host init: %w", err)
		}
	})
	return initErr
}

// OneWireAddress converts a probe address to periph's representation, which
// keeps the family code in the least significant byte.
func OneWireAddress(a probe.Address) onewire.Address {
	var v uint64
	for i := len(a) - 1; i >= 0; i-- {
		v = v<<8 | uint64(a[i])
	}
	return onewire.Address(v)
}

// ProbeAddress is the inverse of OneWireAddress.
func ProbeAddress(v onewire.Address) probe.Address {
	var a probe.Address
	for i := range a {
		a[i] = byte(v >> (8 * i))
	}
	return a
}
