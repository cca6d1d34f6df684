package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itohio/gowhr/pkg/config"
	"github.com/itohio/gowhr/pkg/output"
	"github.com/itohio/gowhr/pkg/report"
	"github.com/itohio/gowhr/pkg/tach"
	"golang.org/x/sync/errgroup"
)

// settleDelay is the pause between opening the sensors and the first report.
var settleDelay = time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	useMQTT := flag.Bool("mqtt", false, "Publish reports to the configured MQTT broker")
	period := flag.Duration("period", 0, "Report period (overrides config)")
	useMock := flag.Bool("mock", false, "Use simulated sensors")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *useMQTT {
		cfg.MQTT.Enabled = true
	}
	if *period > 0 {
		cfg.Report.Period = *period
	}

	addrs, err := cfg.ProbeAddresses()
	if err != nil {
		log.Fatalf("Invalid probe list: %v", err)
	}

	var src *sources
	if *useMock {
		log.Println("Using simulated sensors")
		src = mockSources(&cfg.Mock, addrs)
	} else {
		src, err = hardwareSources(cfg, addrs)
		if err != nil {
			log.Fatalf("Failed to open sensors: %v", err)
		}
	}
	defer src.Close()

	outs, err := outputs(cfg, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to open outputs: %v", err)
	}
	defer func() {
		for _, o := range outs {
			o.Close()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reporter := report.NewReporter(src.rate, src.analog, src.bus, addrs)
	if err := run(ctx, cfg.Report.Period, src, reporter, outs); err != nil {
		log.Printf("Monitor stopped: %v", err)
	}
}

// run feeds the tracker and emits reports until ctx is done or a source
// fails.
func run(ctx context.Context, period time.Duration, src *sources, reporter *report.Reporter, outs []output.Output) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return src.edges(ctx)
	})

	g.Go(func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settleDelay):
		}
		return reporter.Run(ctx, period, io.Discard, func(rep report.Report) {
			for _, o := range outs {
				if err := o.Publish(rep); err != nil {
					log.Printf("Failed to publish report: %v", err)
				}
			}
		})
	})

	err := g.Wait()
	if src.tracker != nil {
		log.Println(tachSummary(src.tracker.Snapshot()))
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// tachSummary describes the pulse input for the shutdown log.
func tachSummary(snap tach.Snapshot) string {
	if !snap.Valid {
		return fmt.Sprintf("Tach: %d transitions, no full interval, %d dropped", snap.Count, snap.Dropped)
	}
	return fmt.Sprintf("Tach: %d transitions, last rate %.2f RPM, %d dropped", snap.Count, snap.Rate, snap.Dropped)
}
