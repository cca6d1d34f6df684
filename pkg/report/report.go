// Package report collects one reading from every source and renders it as the
// human-readable text block the device prints on its serial link. The same
// package decodes that text back into reports on the host.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/itohio/gowhr/pkg/probe"
)

// Report is one reporting period's worth of readings.
type Report struct {
	Timestamp  time.Time
	RPM        float64   // Events per minute
	WaterLevel int       // Raw analog count
	Temps      []float64 // Degrees Fahrenheit, in probe order
}

// RateSource exposes the tracker's derived rate. Readers never write it.
// Reports need the rate alone; tach.Tracker.Snapshot adds the counters for
// diagnostics.
type RateSource interface {
	Rate() float32
}

// AnalogReader samples the liquid-level input.
type AnalogReader interface {
	Read() (int, error)
}

// Thermometers is a bus of individually addressed temperature probes.
type Thermometers interface {
	RequestTemperatures() error
	TempF(addr probe.Address) (float32, error)
}

// Reporter gathers readings once per call.
type Reporter struct {
	rate   RateSource
	analog AnalogReader
	bus    Thermometers
	probes []probe.Address
	now    func() time.Time
}

// NewReporter creates a reporter. analog and bus may be nil; missing readings
// are reported as 0 and probe.DisconnectedF respectively.
func NewReporter(rate RateSource, analog AnalogReader, bus Thermometers, probes []probe.Address) *Reporter {
	return &Reporter{
		rate:   rate,
		analog: analog,
		bus:    bus,
		probes: probes,
		now:    time.Now,
	}
}

// Collect reads every source once. Sensor errors are not retried: a failed
// analog read yields 0 and a failed probe yields probe.DisconnectedF.
func (r *Reporter) Collect() Report {
	rep := Report{
		Timestamp: r.now(),
		Temps:     make([]float64, len(r.probes)),
	}
	if r.rate != nil {
		rep.RPM = float64(r.rate.Rate())
	}

	if r.analog != nil {
		if v, err := r.analog.Read(); err == nil {
			rep.WaterLevel = v
		}
	}

	if r.bus != nil {
		// The conversion result is read back regardless, like the device does.
		_ = r.bus.RequestTemperatures()
	}
	for i, addr := range r.probes {
		temp := probe.DisconnectedF
		if r.bus != nil {
			if v, err := r.bus.TempF(addr); err == nil {
				temp = v
			}
		}
		rep.Temps[i] = float64(temp)
	}

	return rep
}

// Emit collects a report and writes it to w.
func (r *Reporter) Emit(w io.Writer) (Report, error) {
	rep := r.Collect()
	return rep, Format(w, rep)
}

// ErrBadPeriod is returned by Run for a non-positive period.
var ErrBadPeriod = errors.New("report period must be positive")

// Run emits a report immediately and then once per period until ctx is done.
// fn, if not nil, observes every report after it was written.
func (r *Reporter) Run(ctx context.Context, period time.Duration, w io.Writer, fn func(Report)) error {
	if period <= 0 {
		return fmt.Errorf("%w: %v", ErrBadPeriod, period)
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		rep, err := r.Emit(w)
		if err != nil {
			return err
		}
		if fn != nil {
			fn(rep)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
