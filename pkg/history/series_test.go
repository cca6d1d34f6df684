package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func pointsAt(start time.Time, step time.Duration, values ...float64) []Point {
	pts := make([]Point, len(values))
	for i, v := range values {
		pts[i] = Point{Time: start.Add(time.Duration(i) * step), Value: v}
	}
	return pts
}

func TestSeries_MaxLen(t *testing.T) {
	s := NewSeries("rpm", 3, 0)
	now := time.Now()
	for _, p := range pointsAt(now, time.Second, 1, 2, 3, 4, 5) {
		s.Add(p)
	}

	assert.Equal(t, 3, s.Len())
	got := s.Points()
	assert.Equal(t, []float64{3, 4, 5}, []float64{got[0].Value, got[1].Value, got[2].Value})

	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, 5.0, last.Value)
}

func TestSeries_Window(t *testing.T) {
	s := NewSeries("rpm", 100, 10*time.Second)
	now := time.Now()
	for _, p := range pointsAt(now, 4*time.Second, 1, 2, 3, 4, 5) {
		s.Add(p)
	}

	// Newest is at +16s, so everything before +6s is gone.
	got := s.Points()
	assert.Len(t, got, 3)
	assert.Equal(t, 3.0, got[0].Value)
}

func TestSeries_Defaults(t *testing.T) {
	s := NewSeries("x", 0, 0)
	now := time.Now()
	for i := range 250 {
		s.Add(Point{Time: now.Add(time.Duration(i) * time.Hour), Value: float64(i)})
	}
	assert.Equal(t, DefaultMaxPoints, s.Len())
}

func TestSeries_PointsIsCopy(t *testing.T) {
	s := NewSeries("x", 5, 0)
	s.Add(Point{Value: 1})
	pts := s.Points()
	pts[0].Value = 42

	last, _ := s.Last()
	assert.Equal(t, 1.0, last.Value)
}

func TestSeries_Reset(t *testing.T) {
	s := NewSeries("x", 5, 0)
	s.Add(Point{Value: 1})
	s.Reset()

	assert.Equal(t, 0, s.Len())
	_, ok := s.Last()
	assert.False(t, ok)
}
