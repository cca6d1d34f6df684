package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/itohio/gowhr/pkg/config"
	"github.com/itohio/gowhr/pkg/output"
	"github.com/itohio/gowhr/pkg/report"
	"github.com/itohio/gowhr/pkg/tach"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_MockSources(t *testing.T) {
	settleDelay = 10 * time.Millisecond

	cfg := config.Default()
	cfg.Mock.Jitter = 0
	cfg.Mock.TempNoise = 0
	addrs, err := cfg.ProbeAddresses()
	require.NoError(t, err)

	src := mockSources(&cfg.Mock, addrs)
	var buf bytes.Buffer
	outs, err := outputs(cfg, &buf)
	require.NoError(t, err)
	require.Len(t, outs, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	reporter := report.NewReporter(src.rate, src.analog, src.bus, addrs)
	err = run(ctx, 50*time.Millisecond, src, reporter, outs)
	assert.True(t, err == nil || errors.Is(err, context.DeadlineExceeded), "unexpected error: %v", err)

	out := buf.String()
	assert.GreaterOrEqual(t, strings.Count(out, "RPM: "), 2)
	assert.Contains(t, out, "Temp sensor 0: 72.00\r\n")
	assert.Contains(t, out, "Temp sensor 1: 68.00\r\n")
	assert.Contains(t, out, "RPM: 1500.00\r\n")
}

type failingOutput struct{ calls int }

func (f *failingOutput) Publish(report.Report) error {
	f.calls++
	return errors.New("broker gone")
}

func (f *failingOutput) Close() error { return nil }

func TestRun_PublishErrorsDoNotStop(t *testing.T) {
	settleDelay = 0

	cfg := config.Default()
	src := mockSources(&cfg.Mock, nil)
	fo := &failingOutput{}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	reporter := report.NewReporter(src.rate, src.analog, src.bus, nil)
	_ = run(ctx, 20*time.Millisecond, src, reporter, []output.Output{fo})
	assert.Greater(t, fo.calls, 1)
}

func TestRun_CancelledIsClean(t *testing.T) {
	settleDelay = time.Hour

	cfg := config.Default()
	src := mockSources(&cfg.Mock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, time.Second, src, report.NewReporter(src.rate, nil, nil, nil), nil)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestTachSummary(t *testing.T) {
	clk := &tach.ManualClock{}
	tr := tach.NewTracker(clk)

	tr.OnTransition()
	assert.Equal(t, "Tach: 1 transitions, no full interval, 0 dropped", tachSummary(tr.Snapshot()))

	tr.OnTransition() // same instant
	clk.Advance(1_000_000)
	tr.OnTransition()
	assert.Equal(t, "Tach: 2 transitions, last rate 60.00 RPM, 1 dropped", tachSummary(tr.Snapshot()))
}

func TestMockSources_ExposeTracker(t *testing.T) {
	cfg := config.Default()
	src := mockSources(&cfg.Mock, nil)
	require.NotNil(t, src.tracker)
	assert.Equal(t, src.rate, report.RateSource(src.tracker))
}
