package scope

import (
	"image/color"
	"math"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/gowhr/pkg/history"
)

var (
	gridColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	titleColor = color.RGBA{R: 230, G: 230, B: 230, A: 255}
)

// plotRenderer renders the plot widget.
type plotRenderer struct {
	plot *Plot

	// Background
	bg *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *plotRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 220)
}

// Layout arranges the widget components.
func (r *plotRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.plot.BaseWidget.Refresh()
	}
}

// Refresh rebuilds every canvas object from the current data.
func (r *plotRenderer) Refresh() {
	r.plot.mu.RLock()
	traces := r.plot.traces
	yMin, yMax := r.plot.yMin, r.plot.yMax
	xMin, xMax := r.plot.xMin, r.plot.xMax
	r.plot.mu.RUnlock()

	r.objects = []fyne.CanvasObject{r.bg}

	size := r.plot.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	marginLeft := float32(60.0)
	marginRight := float32(20.0)
	marginTop := float32(30.0)
	marginBottom := float32(40.0)

	area := plotArea{
		x:    marginLeft,
		y:    marginTop,
		w:    size.Width - marginLeft - marginRight,
		h:    size.Height - marginTop - marginBottom,
		yMin: yMin,
		yMax: yMax,
		xMin: xMin,
		xMax: xMax,
	}

	r.drawTitle(size)
	r.drawGrid(area)
	for _, t := range traces {
		r.drawTrace(area, t)
	}
	r.drawLegend(area, traces)
}

// plotArea maps data coordinates into the drawing area.
type plotArea struct {
	x, y, w, h float32
	yMin, yMax float64
	xMin, xMax time.Time
}

func (a plotArea) pos(p history.Point) fyne.Position {
	span := a.xMax.Sub(a.xMin).Seconds()
	fx := 0.0
	if span > 0 {
		fx = p.Time.Sub(a.xMin).Seconds() / span
	}
	fy := (p.Value - a.yMin) / (a.yMax - a.yMin)
	return fyne.NewPos(a.x+float32(fx)*a.w, a.y+a.h-float32(fy)*a.h)
}

func (r *plotRenderer) drawTitle(size fyne.Size) {
	title := canvas.NewText(r.plot.title, titleColor)
	title.TextSize = 14
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.Alignment = fyne.TextAlignCenter
	title.Resize(fyne.NewSize(size.Width, 20))
	title.Move(fyne.NewPos(0, 5))
	r.objects = append(r.objects, title)

	if r.plot.yLabel != "" {
		y := canvas.NewText(r.plot.yLabel, labelColor)
		y.TextSize = 10
		y.Move(fyne.NewPos(5, 8))
		r.objects = append(r.objects, y)
	}
	if r.plot.xLabel != "" {
		x := canvas.NewText(r.plot.xLabel, labelColor)
		x.TextSize = 10
		x.Alignment = fyne.TextAlignTrailing
		x.Move(fyne.NewPos(size.Width-60, size.Height-16))
		r.objects = append(r.objects, x)
	}
}

// drawGrid draws the grid with value and elapsed time labels.
func (r *plotRenderer) drawGrid(a plotArea) {
	numHLines := 5
	for i := range numHLines + 1 {
		y := a.y + float32(i)*a.h/float32(numHLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(a.x, y)
		line.Position2 = fyne.NewPos(a.x+a.w, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		value := a.yMax - float64(i)*(a.yMax-a.yMin)/float64(numHLines)
		text := canvas.NewText(formatValue(value), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(a.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	numVLines := 6
	span := a.xMax.Sub(a.xMin)
	for i := range numVLines + 1 {
		x := a.x + float32(i)*a.w/float32(numVLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, a.y)
		line.Position2 = fyne.NewPos(x, a.y+a.h)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		offset := time.Duration(float64(span) * float64(i) / float64(numVLines))
		text := canvas.NewText(formatElapsed(offset), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, a.y+a.h+5))
		r.objects = append(r.objects, text)
	}
}

// drawTrace draws one trace as connected line segments. A non-finite value
// breaks the line.
func (r *plotRenderer) drawTrace(a plotArea, t Trace) {
	var (
		prev    fyne.Position
		hasPrev bool
	)
	for _, p := range t.Points {
		if !history.Finite(p.Value) {
			hasPrev = false
			continue
		}
		cur := a.pos(p)
		if hasPrev {
			line := canvas.NewLine(t.Color)
			line.Position1 = prev
			line.Position2 = cur
			line.StrokeWidth = 1.5
			r.objects = append(r.objects, line)
		}
		prev = cur
		hasPrev = true
	}
}

func (r *plotRenderer) drawLegend(a plotArea, traces []Trace) {
	if len(traces) < 2 {
		return
	}
	for i, t := range traces {
		text := canvas.NewText(t.Name, t.Color)
		text.TextSize = 11
		text.Move(fyne.NewPos(a.x+10, a.y+5+float32(i)*14))
		r.objects = append(r.objects, text)
	}
}

// Objects returns all canvas objects for rendering.
func (r *plotRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *plotRenderer) Destroy() {}

// formatValue prints axis values with precision matching their magnitude.
func formatValue(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs < 0.005:
		return "0"
	case abs >= 1000:
		return strconv.FormatFloat(v, 'f', 0, 64)
	case abs >= 10:
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatElapsed prints an offset from the left edge of the plot.
func formatElapsed(d time.Duration) string {
	switch {
	case d >= time.Hour:
		return strconv.FormatFloat(d.Hours(), 'f', 1, 64) + "h"
	case d >= time.Minute:
		return strconv.FormatFloat(d.Minutes(), 'f', 1, 64) + "m"
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 0, 64) + "s"
}
