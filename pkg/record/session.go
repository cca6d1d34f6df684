// Package record writes reports to CSV files for the length of a test run.
package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/itohio/gowhr/pkg/report"
)

var (
	// ErrActive is returned by Start while a recording is running.
	ErrActive = errors.New("recording already active")
	// ErrBadDuration is returned by Start for a non-positive duration.
	ErrBadDuration = errors.New("recording duration must be positive")
)

// Durations are the test lengths offered to the operator.
var Durations = []time.Duration{
	10 * time.Minute,
	30 * time.Minute,
	1 * time.Hour,
	2 * time.Hour,
	3 * time.Hour,
	4 * time.Hour,
	8 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
}

// DurationLabel names d the way the duration selector shows it.
func DurationLabel(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%d Minutes", int(d.Minutes()))
	}
	h := int(d.Hours())
	if h == 1 {
		return "1 Hour"
	}
	return fmt.Sprintf("%d Hours", h)
}

// FileName returns the default recording path for a run starting at t.
func FileName(dir string, t time.Time) string {
	return filepath.Join(dir, "whr-"+t.Format("20060102-150405")+".csv")
}

// Status describes the current or last recording.
type Status struct {
	Active  bool
	Path    string
	Started time.Time
	Until   time.Time
	Rows    int
}

// Session records reports to one CSV file at a time. A recording ends when
// Stop is called or its duration elapses.
type Session struct {
	probes int

	mu     sync.Mutex
	f      *os.File
	w      *csv.Writer
	timer  *time.Timer
	gen    int
	status Status
	onStop func(Status)
}

// New creates a session for reports with the given number of probes.
func New(probes int) *Session {
	return &Session{probes: probes}
}

// OnStop registers fn to be called after every recording ends, including
// when its duration elapses.
func (s *Session) OnStop(fn func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStop = fn
}

// SetProbes changes the number of temperature columns of the next recording.
func (s *Session) SetProbes(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Active {
		return ErrActive
	}
	s.probes = n
	return nil
}

// Header returns the CSV column names.
func (s *Session) Header() []string {
	h := []string{"timestamp", "rpm", "water_level"}
	for i := range s.probes {
		h = append(h, "temp"+strconv.Itoa(i))
	}
	return h
}

// Start creates path and records into it for d.
func (s *Session) Start(path string, d time.Duration) error {
	if d <= 0 {
		return ErrBadDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Active {
		return ErrActive
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(s.Header()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	w.Flush()

	now := time.Now()
	s.f = f
	s.w = w
	s.gen++
	gen := s.gen
	s.status = Status{
		Active:  true,
		Path:    path,
		Started: now,
		Until:   now.Add(d),
	}
	s.timer = time.AfterFunc(d, func() { s.expire(gen) })

	return nil
}

// Write appends rep as one row with one temperature column per probe. It
// does nothing when no recording is active.
func (s *Session) Write(rep report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.status.Active {
		return nil
	}

	// Rows always match the header: missing temperatures stay empty and
	// extra ones are dropped.
	row := make([]string, 3+s.probes)
	row[0] = rep.Timestamp.Format(time.RFC3339Nano)
	row[1] = report.FormatFloat(rep.RPM)
	row[2] = strconv.Itoa(rep.WaterLevel)
	for i, t := range rep.Temps[:min(len(rep.Temps), s.probes)] {
		row[3+i] = report.FormatFloat(t)
	}

	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	s.status.Rows++
	return nil
}

// Stop ends the recording. Stopping an idle session is not an error.
func (s *Session) Stop() error {
	s.mu.Lock()
	if !s.status.Active {
		s.mu.Unlock()
		return nil
	}
	err := s.closeLocked()
	status, onStop := s.status, s.onStop
	s.mu.Unlock()

	if onStop != nil {
		onStop(status)
	}
	return err
}

// Active reports whether a recording is running.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.Active
}

// Status returns the current or last recording's status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) expire(gen int) {
	s.mu.Lock()
	if gen != s.gen || !s.status.Active {
		s.mu.Unlock()
		return
	}
	_ = s.closeLocked()
	status, onStop := s.status, s.onStop
	s.mu.Unlock()

	if onStop != nil {
		onStop(status)
	}
}

func (s *Session) closeLocked() error {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.status.Active = false

	s.w.Flush()
	werr := s.w.Error()
	cerr := s.f.Close()
	s.f, s.w = nil, nil

	return errors.Join(werr, cerr)
}
