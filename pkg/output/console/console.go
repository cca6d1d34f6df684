package console

import (
	"io"
	"os"
	"sync"

	"github.com/itohio/gowhr/pkg/output"
	"github.com/itohio/gowhr/pkg/report"
)

// ConsoleOutput writes each report's text block to a writer.
type ConsoleOutput struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole writes to stdout.
func NewConsole() output.Output { return &ConsoleOutput{w: os.Stdout} }

// NewWriter writes to w.
func NewWriter(w io.Writer) output.Output { return &ConsoleOutput{w: w} }

func (c *ConsoleOutput) Publish(r report.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return report.Format(c.w, r)
}

func (c *ConsoleOutput) Close() error { return nil }
