package device

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/itohio/gowhr/pkg/report"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// DefaultBaudRate is the rate the firmware opens its UART at.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the report and line channels.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the monitor over its serial link.
type Serial struct {
	port     string
	baudRate int
	bufSize  int
	probes   int

	conn      serial.Port
	stream    *stream
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a new Serial device. probes is the number of temperature lines
// in each report block; 0 lets the next block or the end of input complete
// a report.
func New(port string, baudRate, bufSize, probes int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		probes:   probes,
		stream:   newStream(bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports. USB ports are described
// by their product name when the platform reports one.
func Ports() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		result := make([]Port, 0, len(details))
		for _, p := range details {
			desc := p.Name
			if p.IsUSB {
				desc = fmt.Sprintf("%s (%s:%s %s)", p.Name, p.VID, p.PID, p.Product)
			}
			result = append(result, Port{Name: p.Name, Description: desc})
		}
		return result, nil
	}

	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	result := make([]Port, 0, len(names))
	for _, name := range names {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port and starts decoding reports.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return ErrAlreadyConnected
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.stream.run(d.ctx, port, d.probes)

	return nil
}

// Close closes the port and waits for the reader to close both channels.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}
	<-d.stream.done

	d.connected = false

	return nil
}

// Reports returns the channel of decoded reports.
func (d *Serial) Reports() <-chan report.Report {
	return d.stream.reports
}

// Lines returns the channel of raw lines received from the device.
func (d *Serial) Lines() <-chan string {
	return d.stream.lines
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}
