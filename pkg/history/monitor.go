// Package history keeps the recent readings of every signal for plotting.
package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/itohio/gowhr/pkg/config"
	"github.com/itohio/gowhr/pkg/report"
)

// Signal names.
const (
	SignalRPM        = "RPM"
	SignalWaterLevel = "Water Level"
)

// TempSignal names the i-th temperature probe.
func TempSignal(i int) string {
	return fmt.Sprintf("Temp sensor %d", i)
}

// Snapshot is a copy of every series at one moment.
type Snapshot struct {
	RPM        []Point
	WaterLevel []Point
	Temps      [][]Point // One series per probe, in probe order
	Last       report.Report
}

// Monitor turns a stream of reports into per-signal series and fans updates
// out to callbacks.
type Monitor struct {
	maxPoints int
	window    time.Duration

	mu    sync.RWMutex
	rpm   *Series
	water *Series
	temps []*Series
	last  report.Report
	live  bool

	// Shutdown control
	shutdown bool // Set when the input channel closes, prevents further callbacks

	callbacks []func(Snapshot)
	cbMu      sync.RWMutex
}

// New creates a monitor. cfg may be nil.
func New(cfg *config.HistoryConfig) *Monitor {
	if cfg == nil {
		cfg = &config.Default().History
	}
	return &Monitor{
		maxPoints: cfg.MaxPoints,
		window:    cfg.Window,
		rpm:       NewSeries(SignalRPM, cfg.MaxPoints, cfg.Window),
		water:     NewSeries(SignalWaterLevel, cfg.MaxPoints, cfg.Window),
		live:      true,
	}
}

// Process adds every report from input until it closes.
func (m *Monitor) Process(input <-chan report.Report) {
	for rep := range input {
		m.Add(rep)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

// Add records rep and notifies callbacks. While live updates are off the
// report is dropped.
func (m *Monitor) Add(rep report.Report) {
	m.mu.Lock()
	if !m.live {
		m.mu.Unlock()
		return
	}

	m.last = rep
	m.last.Temps = append([]float64(nil), rep.Temps...)
	m.rpm.Add(Point{Time: rep.Timestamp, Value: rep.RPM})
	m.water.Add(Point{Time: rep.Timestamp, Value: float64(rep.WaterLevel)})
	for i, t := range rep.Temps {
		for len(m.temps) <= i {
			m.temps = append(m.temps, NewSeries(TempSignal(len(m.temps)), m.maxPoints, m.window))
		}
		m.temps[i].Add(Point{Time: rep.Timestamp, Value: t})
	}

	snap := m.snapshotLocked()
	shouldNotify := !m.shutdown
	m.mu.Unlock()

	if shouldNotify {
		m.notifyCallbacks(snap)
	}
}

// SetLive enables or suspends updates. Either way the series are cleared,
// so a resumed plot starts empty.
func (m *Monitor) SetLive(live bool) {
	m.mu.Lock()
	m.live = live
	m.rpm.Reset()
	m.water.Reset()
	for _, s := range m.temps {
		s.Reset()
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notifyCallbacks(snap)
}

// Live reports whether updates are enabled.
func (m *Monitor) Live() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.live
}

// Snapshot returns a copy of the current series.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// OnUpdate registers a callback. All callbacks of one update share a copy
// detached from the monitor; they must not modify it and should return
// quickly.
func (m *Monitor) OnUpdate(callback func(Snapshot)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ResetShutdown allows callbacks again after the input channel was closed.
// Call it before processing a new device's reports.
func (m *Monitor) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

func (m *Monitor) snapshotLocked() Snapshot {
	snap := Snapshot{
		RPM:        m.rpm.Points(),
		WaterLevel: m.water.Points(),
		Temps:      make([][]Point, len(m.temps)),
		Last:       m.last,
	}
	for i, s := range m.temps {
		snap.Temps[i] = s.Points()
	}
	snap.Last.Temps = append([]float64(nil), m.last.Temps...)
	return snap
}

func (m *Monitor) notifyCallbacks(snap Snapshot) {
	m.cbMu.RLock()
	callbacks := make([]func(Snapshot), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(snap)
		}
	}
}
