//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"

	"github.com/itohio/gowhr/pkg/probe"
	"github.com/itohio/gowhr/pkg/report"
	"github.com/itohio/gowhr/pkg/tach"
)

var (
	uart    = machine.Serial
	tracker = tach.NewTracker(tach.SinceStart())
)

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	addrs := make([]probe.Address, len(PROBES))
	for i, s := range PROBES {
		addrs[i] = probe.MustParseAddress(s)
	}

	bus := newProbeBus(PIN_ONEWIRE, addrs)
	print("Devices found: ")
	println(bus.Count())

	water := newWaterSensor(PIN_WATER)

	// OnTransition runs in interrupt context and neither allocates nor blocks.
	PIN_TACH.Configure(machine.PinConfig{Mode: machine.PinInput})
	err := PIN_TACH.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		tracker.OnTransition()
	})
	if err != nil {
		println("tach interrupt:", err.Error())
	}

	time.Sleep(SETTLE_DELAY)

	reporter := report.NewReporter(tracker, water, bus, addrs)
	for {
		reporter.Emit(uart)
		time.Sleep(REPORT_PERIOD)
	}
}
