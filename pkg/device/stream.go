package device

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/itohio/gowhr/pkg/report"
)

// stream decodes a device's text output into reports. It owns both output
// channels and closes them once the input ends.
type stream struct {
	reports chan report.Report
	lines   chan string
	done    chan struct{}
}

func newStream(bufSize int) *stream {
	return &stream{
		reports: make(chan report.Report, bufSize),
		lines:   make(chan string, bufSize),
		done:    make(chan struct{}),
	}
}

// run decodes r until it ends or ctx is done.
func (s *stream) run(ctx context.Context, r io.Reader, probes int) {
	defer func() {
		close(s.reports)
		close(s.lines)
		close(s.done)
	}()

	dec := report.NewDecoder(r, probes)
	dec.OnLine(func(line string) {
		// The log view is best effort.
		select {
		case s.lines <- line:
		default:
		}
	})

	for {
		rep, err := dec.Decode()
		if errors.Is(err, report.ErrMalformed) {
			log.Printf("Failed to decode report: %v", err)
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Printf("Error reading from device: %v", err)
			}
			return
		}

		// Send report to channel (non-blocking)
		select {
		case s.reports <- rep:
		case <-ctx.Done():
			return
		default:
			log.Printf("Reports channel full, dropping report")
		}
	}
}
