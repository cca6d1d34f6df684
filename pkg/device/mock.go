package device

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/itohio/gowhr/pkg/config"
	"github.com/itohio/gowhr/pkg/probe"
	"github.com/itohio/gowhr/pkg/report"
	"github.com/itohio/gowhr/pkg/sensor"
)

// Mock simulates the monitor for testing and development. It runs the same
// tracker and reporter as the firmware against simulated sensors and decodes
// the printed text like a serial link would.
type Mock struct {
	cfg    *config.MockConfig
	probes []probe.Address

	shaft    *sensor.Shaft
	analog   *sensor.FakeAnalog
	thermo   *sensor.FakeThermometers
	reporter *report.Reporter

	stream    *stream
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// NewMock creates a new mocked device reporting the given probes. Probes
// without a configured temperature read as disconnected.
func NewMock(cfg *config.MockConfig, probes []probe.Address) *Mock {
	if cfg == nil {
		cfg = &config.Default().Mock
	}

	shaft := sensor.NewShaft(cfg.RPM, cfg.Jitter)
	analog := sensor.NewFakeAnalog(cfg.WaterLevel, cfg.WaterStep, 4095)
	thermo := sensor.NewFakeThermometers(cfg.TempNoise)
	for i, addr := range probes {
		if i < len(cfg.Temps) {
			thermo.Set(addr, cfg.Temps[i])
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:      cfg,
		probes:   probes,
		shaft:    shaft,
		analog:   analog,
		thermo:   thermo,
		reporter: report.NewReporter(shaft.Tracker(), analog, thermo, probes),
		stream:   newStream(DefaultBufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Shaft returns the simulated shaft so callers can change its speed.
func (m *Mock) Shaft() *sensor.Shaft {
	return m.shaft
}

// Thermometers returns the simulated probe bus.
func (m *Mock) Thermometers() *sensor.FakeThermometers {
	return m.thermo
}

// Connect starts the simulation.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return ErrAlreadyConnected
	}
	m.connected = true

	pr, pw := io.Pipe()
	go func() {
		m.stream.run(m.ctx, pr, len(m.probes))
		pr.Close()
	}()
	go m.shaft.Run(m.ctx, sensor.Revolution(m.cfg.RPM))
	go func() {
		err := m.reporter.Run(m.ctx, m.cfg.Period, pw, nil)
		if err != nil && m.ctx.Err() == nil {
			log.Printf("Mock reporter stopped: %v", err)
		}
		pw.Close()
	}()

	return nil
}

// Close stops the simulation and waits for both channels to close.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	<-m.stream.done
	m.connected = false

	return nil
}

// Reports returns the channel of decoded reports.
func (m *Mock) Reports() <-chan report.Report {
	return m.stream.reports
}

// Lines returns the channel of printed lines.
func (m *Mock) Lines() <-chan string {
	return m.stream.lines
}

// IsConnected returns whether the simulation is running.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}
