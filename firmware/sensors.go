//go:build tinygo

package main

import (
	"fmt"
	"machine"
	"time"

	"github.com/itohio/gowhr/pkg/probe"
	"tinygo.org/x/drivers/ds18b20"
	"tinygo.org/x/drivers/onewire"
)

const searchROM = 0xF0

// waterSensor reads the level input as a 12-bit count.
type waterSensor struct {
	adc machine.ADC
}

func newWaterSensor(pin machine.Pin) *waterSensor {
	pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	adc := machine.ADC{Pin: pin}
	adc.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})
	return &waterSensor{adc: adc}
}

// Read returns the level. Get scales every resolution to 16 bits.
func (w *waterSensor) Read() (int, error) {
	return int(w.adc.Get() >> (16 - ADC_RESOLUTION)), nil
}

// probeBus reads addressed DS18B20 probes on one 1-Wire pin.
type probeBus struct {
	ow      onewire.Device
	sensor  ds18b20.Device
	addrs   []probe.Address
	convert time.Duration
}

func newProbeBus(pin machine.Pin, addrs []probe.Address) *probeBus {
	ow := onewire.New(pin)
	return &probeBus{
		ow:      ow,
		sensor:  ds18b20.New(ow),
		addrs:   addrs,
		convert: CONVERSION_12B,
	}
}

// Count returns the number of devices answering a ROM search.
func (b *probeBus) Count() int {
	roms, err := b.ow.Search(searchROM)
	if err != nil {
		return 0
	}
	return len(roms)
}

// RequestTemperatures starts a conversion on every probe and waits for it.
func (b *probeBus) RequestTemperatures() error {
	for _, addr := range b.addrs {
		b.sensor.RequestTemperature(addr[:])
	}
	time.Sleep(b.convert)
	return nil
}

// TempF reads the last conversion of addr.
func (b *probeBus) TempF(addr probe.Address) (float32, error) {
	milli, err := b.sensor.ReadTemperature(addr[:])
	if err != nil {
		return probe.DisconnectedF, fmt.Errorf("read %s: %w", addr, err)
	}
	return probe.CToF(float32(milli) / 1000), nil
}
