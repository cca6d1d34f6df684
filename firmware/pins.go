//go:build tinygo

package main

import (
	"machine"
	"time"
)

const (
	// Timing
	SETTLE_DELAY   = 1 * time.Second // Delay after setup before the first report
	REPORT_PERIOD  = 5 * time.Second // Delay between reports
	CONVERSION_12B = 750 * time.Millisecond

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// Pins
	PIN_ONEWIRE = machine.D2 // DS18B20 data line
	PIN_TACH    = machine.D3 // One falling edge per revolution
	PIN_WATER   = machine.A1 // Water level sensor

	UART_BAUD_RATE = 115200
)

// Probe ROM codes in report order.
var PROBES = [...]string{
	"28EA6471000000D1",
	"28D6556E000000AA",
}
