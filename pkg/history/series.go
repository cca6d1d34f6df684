package history

import (
	"math"
	"time"
)

// DefaultMaxPoints is the plot buffer length.
const DefaultMaxPoints = 100

// Point is one timestamped value.
type Point struct {
	Time  time.Time
	Value float64
}

// Finite reports whether v can be drawn. Decoded rates may be Inf or NaN.
func Finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Series is a FIFO of points ordered oldest first. Points older than the
// window (relative to the newest point) or beyond the max length are dropped.
// A Series is not safe for concurrent use.
type Series struct {
	Name   string
	points []Point
	maxLen int
	window time.Duration
}

// NewSeries creates an empty series. maxLen <= 0 uses DefaultMaxPoints and
// window <= 0 disables time-based trimming.
func NewSeries(name string, maxLen int, window time.Duration) *Series {
	if maxLen <= 0 {
		maxLen = DefaultMaxPoints
	}
	return &Series{
		Name:   name,
		points: make([]Point, 0, maxLen),
		maxLen: maxLen,
		window: window,
	}
}

// Add appends p and trims the series.
func (s *Series) Add(p Point) {
	s.points = append(s.points, p)

	if s.window > 0 {
		cutoff := p.Time.Add(-s.window)
		n := 0
		for n < len(s.points) && s.points[n].Time.Before(cutoff) {
			n++
		}
		s.drop(n)
	}
	if over := len(s.points) - s.maxLen; over > 0 {
		s.drop(over)
	}
}

// drop removes the n oldest points in place so the backing array is reused.
func (s *Series) drop(n int) {
	if n <= 0 {
		return
	}
	k := copy(s.points, s.points[n:])
	s.points = s.points[:k]
}

// Len returns the number of points.
func (s *Series) Len() int { return len(s.points) }

// Last returns the newest point.
func (s *Series) Last() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// Points returns a copy of the points, oldest first.
func (s *Series) Points() []Point {
	result := make([]Point, len(s.points))
	copy(result, s.points)
	return result
}

// Reset removes all points.
func (s *Series) Reset() {
	s.points = s.points[:0]
}
