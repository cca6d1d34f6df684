package history

import (
	"sync"
	"testing"
	"time"

	"github.com/itohio/gowhr/pkg/config"
	"github.com/itohio/gowhr/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport(at time.Time, rpm float64, temps ...float64) report.Report {
	return report.Report{Timestamp: at, RPM: rpm, WaterLevel: int(rpm) / 10, Temps: temps}
}

func TestMonitor_Add(t *testing.T) {
	m := New(&config.HistoryConfig{Window: time.Hour, MaxPoints: 3})
	now := time.Now()
	for i := range 5 {
		m.Add(testReport(now.Add(time.Duration(i)*time.Second), float64(i*100), 70, 71))
	}

	snap := m.Snapshot()
	assert.Equal(t, []float64{200, 300, 400}, values(snap.RPM))
	assert.Equal(t, []float64{20, 30, 40}, values(snap.WaterLevel))
	require.Len(t, snap.Temps, 2)
	assert.Equal(t, []float64{71, 71, 71}, values(snap.Temps[1]))
	assert.Equal(t, 400.0, snap.Last.RPM)
}

func TestMonitor_GrowsTempSeries(t *testing.T) {
	m := New(nil)
	now := time.Now()
	m.Add(testReport(now, 0))
	m.Add(testReport(now.Add(time.Second), 1, 70))
	m.Add(testReport(now.Add(2*time.Second), 1, 70, 80))

	snap := m.Snapshot()
	require.Len(t, snap.Temps, 2)
	assert.Len(t, snap.Temps[0], 2)
	assert.Len(t, snap.Temps[1], 1)
	assert.Equal(t, "Temp sensor 1", TempSignal(1))
}

func TestMonitor_SetLive(t *testing.T) {
	m := New(nil)
	now := time.Now()
	m.Add(testReport(now, 100, 70))
	assert.True(t, m.Live())

	var mu sync.Mutex
	var updates []Snapshot
	m.OnUpdate(func(s Snapshot) {
		mu.Lock()
		updates = append(updates, s)
		mu.Unlock()
	})

	m.SetLive(false)
	assert.False(t, m.Live())
	assert.Empty(t, m.Snapshot().RPM, "toggling clears the plots")

	m.Add(testReport(now.Add(time.Second), 200, 70))
	assert.Empty(t, m.Snapshot().RPM, "paused monitor drops reports")

	m.SetLive(true)
	m.Add(testReport(now.Add(2*time.Second), 300, 70))
	assert.Equal(t, []float64{300}, values(m.Snapshot().RPM))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 3)
	assert.Empty(t, updates[0].RPM)
	assert.Empty(t, updates[1].RPM)
	assert.Equal(t, []float64{300}, values(updates[2].RPM))
}

func TestMonitor_CallbackGetsCopy(t *testing.T) {
	m := New(nil)
	var got Snapshot
	m.OnUpdate(func(s Snapshot) { got = s })

	rep := testReport(time.Now(), 100, 70)
	m.Add(rep)
	rep.Temps[0] = 99
	got.RPM[0].Value = 1

	snap := m.Snapshot()
	assert.Equal(t, 70.0, snap.Last.Temps[0])
	assert.Equal(t, 100.0, snap.RPM[0].Value)
}
