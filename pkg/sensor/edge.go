package sensor

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// DefaultEdgePoll bounds how long a watcher waits for an edge before it
// checks for cancellation.
const DefaultEdgePoll = time.Second

// EdgeWatcher calls a handler for every falling edge on an input pin. The
// handler runs on the watcher's goroutine, one call at a time.
type EdgeWatcher struct {
	pin     gpio.PinIn
	handler func()
	poll    time.Duration
}

// NewEdgeWatcher looks up a pin by name (e.g. "GPIO17") and arms it for
// falling edges with the internal pull-up enabled.
func NewEdgeWatcher(name string, handler func()) (*EdgeWatcher, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	return NewEdgeWatcherPin(p, handler)
}

// NewEdgeWatcherPin arms an already resolved pin.
func NewEdgeWatcherPin(p gpio.PinIn, handler func()) (*EdgeWatcher, error) {
	if err := p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("arm %s: %w", p, err)
	}
	return &EdgeWatcher{pin: p, handler: handler, poll: DefaultEdgePoll}, nil
}

// Run waits for edges until ctx is done.
func (w *EdgeWatcher) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = w.pin.Halt()
	})
	defer stop()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if w.pin.WaitForEdge(w.poll) {
			w.handler()
		}
	}
}
