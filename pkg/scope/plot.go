// Package scope provides a plot widget for time series.
package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gowhr/pkg/history"
)

// DefaultColors is the trace palette, used in order.
var DefaultColors = []color.Color{
	color.RGBA{R: 255, G: 200, B: 0, A: 255},   // Yellow
	color.RGBA{R: 100, G: 200, B: 255, A: 255}, // Light blue
	color.RGBA{R: 120, G: 220, B: 120, A: 255}, // Green
	color.RGBA{R: 255, G: 120, B: 200, A: 255}, // Pink
	color.RGBA{R: 255, G: 165, B: 0, A: 255},   // Orange
}

// Trace is one named line.
type Trace struct {
	Name   string
	Color  color.Color // nil picks from DefaultColors
	Points []history.Point
}

// Plot is a custom Fyne widget that draws one or more traces over a shared
// time axis with auto-scaling and a grid.
type Plot struct {
	widget.BaseWidget

	title  string
	xLabel string
	yLabel string

	// Data (protected by mu)
	mu     sync.RWMutex
	traces []Trace

	// Auto-scaling
	yMin, yMax float64
	xMin, xMax time.Time

	// Display settings
	maxDisplayPoints int
	minWindow        time.Duration
}

// New creates a new Plot.
func New(title, xLabel, yLabel string) *Plot {
	p := &Plot{
		title:            title,
		xLabel:           xLabel,
		yLabel:           yLabel,
		maxDisplayPoints: 1000,
		minWindow:        10 * time.Second,
	}
	p.yMin, p.yMax, p.xMin, p.xMax = autoScale(nil, p.minWindow)
	p.ExtendBaseWidget(p)
	return p
}

// Title returns the plot title.
func (p *Plot) Title() string {
	return p.title
}

// SetMinWindow sets the shortest time span shown on the x axis.
func (p *Plot) SetMinWindow(d time.Duration) {
	p.mu.Lock()
	p.minWindow = d
	p.mu.Unlock()
}

// SetTraces replaces the plotted data.
// This should be called from the UI goroutine, e.g. using fyne.Do().
func (p *Plot) SetTraces(traces ...Trace) {
	p.mu.Lock()

	display := p.traces
	if cap(display) < len(traces) {
		display = make([]Trace, len(traces))
	}
	display = display[:len(traces)]
	for i, t := range traces {
		// Downsample for display (reuse buffers)
		display[i].Points = history.Downsample(display[i].Points, t.Points, p.maxDisplayPoints)
		display[i].Name = t.Name
		display[i].Color = t.Color
		if display[i].Color == nil {
			display[i].Color = DefaultColors[i%len(DefaultColors)]
		}
	}
	p.traces = display
	p.yMin, p.yMax, p.xMin, p.xMax = autoScale(p.traces, p.minWindow)

	p.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	p.Refresh()
}

// Clear removes all traces.
func (p *Plot) Clear() {
	p.SetTraces()
}

// Traces returns the names of the plotted traces.
func (p *Plot) Traces() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.traces))
	for i, t := range p.traces {
		names[i] = t.Name
	}
	return names
}

// autoScale calculates the axis ranges for traces. The y range gets a 10%
// margin and the x range spans at least minWindow. Non-finite values are
// ignored.
func autoScale(traces []Trace, minWindow time.Duration) (yMin, yMax float64, xMin, xMax time.Time) {
	first := true
	for _, t := range traces {
		for _, pt := range t.Points {
			if !history.Finite(pt.Value) {
				continue
			}
			if first {
				yMin, yMax = pt.Value, pt.Value
				xMin, xMax = pt.Time, pt.Time
				first = false
				continue
			}
			yMin = min(yMin, pt.Value)
			yMax = max(yMax, pt.Value)
			if pt.Time.Before(xMin) {
				xMin = pt.Time
			}
			if pt.Time.After(xMax) {
				xMax = pt.Time
			}
		}
	}

	if first {
		now := time.Now()
		return 0, 1, now, now.Add(minWindow)
	}

	// Add 10% margin
	span := yMax - yMin
	if span == 0 {
		span = 1.0
	}
	margin := span * 0.1
	yMin -= margin
	yMax += margin

	// Ensure minimum window
	if xMax.Sub(xMin) < minWindow {
		xMax = xMin.Add(minWindow)
	}
	return yMin, yMax, xMin, xMax
}

// CreateRenderer creates the widget renderer.
func (p *Plot) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &plotRenderer{
		plot:    p,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}
