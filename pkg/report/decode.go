package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed is returned for a known line whose value cannot be parsed.
var ErrMalformed = errors.New("malformed report line")

// Decoder reassembles reports from a device's text stream.
type Decoder struct {
	sc      *bufio.Scanner
	probes  int
	pending *Report
	held    error // Returned by the next Decode call
	now     func() time.Time
	onLine  func(string)
}

// NewDecoder reads report blocks from r. A block is complete once probes
// temperature lines were read, or when the next block starts or the stream
// ends. Pass probes <= 0 to rely only on the latter.
func NewDecoder(r io.Reader, probes int) *Decoder {
	return &Decoder{
		sc:     bufio.NewScanner(r),
		probes: probes,
		now:    time.Now,
	}
}

// OnLine registers fn to observe every non-empty line before it is decoded.
func (d *Decoder) OnLine(fn func(string)) {
	d.onLine = fn
}

// Decode returns the next complete report. Lines that are not part of a
// report block are skipped. After an ErrMalformed error the partial block is
// discarded and decoding may continue. io.EOF is returned at the end of the
// stream.
func (d *Decoder) Decode() (Report, error) {
	if d.held != nil {
		err := d.held
		d.held = nil
		return Report{}, err
	}

	for d.sc.Scan() {
		line := strings.TrimSpace(d.sc.Text())
		if line == "" {
			continue
		}
		if d.onLine != nil {
			d.onLine(line)
		}

		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		switch {
		case key == KeyRPM:
			rpm, err := ParseFloat(val)
			if err != nil {
				err = fmt.Errorf("%w %q: %v", ErrMalformed, line, err)
				// A malformed header still ends the previous block.
				if prev := d.pending; prev != nil {
					d.pending = nil
					d.held = err
					return *prev, nil
				}
				return Report{}, err
			}
			prev := d.pending
			d.pending = &Report{Timestamp: d.now(), RPM: rpm, Temps: make([]float64, 0, max(d.probes, 0))}
			if prev != nil {
				return *prev, nil
			}

		case key == KeyWaterLevel:
			if d.pending == nil {
				continue
			}
			level, err := strconv.Atoi(val)
			if err != nil {
				d.pending = nil
				return Report{}, fmt.Errorf("%w %q: %v", ErrMalformed, line, err)
			}
			d.pending.WaterLevel = level

		case strings.HasPrefix(key, KeyTempPrefix):
			if d.pending == nil {
				continue
			}
			idx, err := strconv.Atoi(strings.TrimPrefix(key, KeyTempPrefix))
			if err != nil || idx != len(d.pending.Temps) {
				d.pending = nil
				return Report{}, fmt.Errorf("%w %q: unexpected sensor index", ErrMalformed, line)
			}
			temp, err := ParseFloat(val)
			if err != nil {
				d.pending = nil
				return Report{}, fmt.Errorf("%w %q: %v", ErrMalformed, line, err)
			}
			d.pending.Temps = append(d.pending.Temps, temp)
			if d.probes > 0 && len(d.pending.Temps) == d.probes {
				rep := *d.pending
				d.pending = nil
				return rep, nil
			}
		}
	}

	if err := d.sc.Err(); err != nil {
		return Report{}, err
	}
	if d.pending != nil {
		rep := *d.pending
		d.pending = nil
		return rep, nil
	}
	return Report{}, io.EOF
}
