package main

import (
	"context"
	"io"
	"log"

	"github.com/itohio/gowhr/pkg/config"
	"github.com/itohio/gowhr/pkg/output"
	"github.com/itohio/gowhr/pkg/output/console"
	"github.com/itohio/gowhr/pkg/output/mqtt"
	"github.com/itohio/gowhr/pkg/probe"
	"github.com/itohio/gowhr/pkg/report"
	"github.com/itohio/gowhr/pkg/sensor"
	"github.com/itohio/gowhr/pkg/tach"
)

// sources are the inputs of one monitor run.
type sources struct {
	tracker *tach.Tracker
	rate    report.RateSource
	analog  report.AnalogReader
	bus     report.Thermometers
	edges   func(ctx context.Context) error // Feeds rate until ctx is done
	closers []io.Closer
}

func (s *sources) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Printf("Error closing source: %v", err)
		}
	}
}

// hardwareSources opens the periph.io devices named in cfg. A missing ADC or
// probe bus is logged and read as 0 or disconnected; the pulse input is
// required.
func hardwareSources(cfg *config.Config, addrs []probe.Address) (*sources, error) {
	tracker := tach.NewTracker(nil)
	watcher, err := sensor.NewEdgeWatcher(cfg.Tach.Pin, tracker.OnTransition)
	if err != nil {
		return nil, err
	}
	src := &sources{tracker: tracker, rate: tracker, edges: watcher.Run}

	adc, err := sensor.NewADS1115(cfg.Analog.I2CBus, cfg.Analog.I2CAddress, cfg.Analog.Channel, cfg.Analog.SampleRate)
	if err != nil {
		log.Printf("Water level sensor not available: %v", err)
	} else {
		src.analog = adc
		src.closers = append(src.closers, adc)
	}

	probes, err := sensor.NewOneWireProbes(cfg.OneWire.Bus, cfg.OneWire.Resolution, addrs)
	if err != nil {
		log.Printf("Temperature probes not available: %v", err)
	} else {
		src.bus = probes
		src.closers = append(src.closers, probes)
	}

	return src, nil
}

// mockSources simulates every input from cfg.Mock.
func mockSources(cfg *config.MockConfig, addrs []probe.Address) *sources {
	shaft := sensor.NewShaft(cfg.RPM, cfg.Jitter)
	thermo := sensor.NewFakeThermometers(cfg.TempNoise)
	for i, addr := range addrs {
		if i < len(cfg.Temps) {
			thermo.Set(addr, cfg.Temps[i])
		}
	}

	return &sources{
		tracker: shaft.Tracker(),
		rate:    shaft.Tracker(),
		analog:  sensor.NewFakeAnalog(cfg.WaterLevel, cfg.WaterStep, 4095),
		bus:     thermo,
		edges: func(ctx context.Context) error {
			shaft.Run(ctx, sensor.Revolution(cfg.RPM))
			return ctx.Err()
		},
	}
}

// outputs opens the console and, when enabled, the MQTT output.
func outputs(cfg *config.Config, w io.Writer) ([]output.Output, error) {
	outs := []output.Output{console.NewWriter(w)}
	if !cfg.MQTT.Enabled {
		return outs, nil
	}

	m, err := mqtt.NewMQTT(mqtt.Config{
		Server:   cfg.MQTT.Server,
		ClientID: cfg.MQTT.ClientID,
		Topic:    cfg.MQTT.Topic,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
	})
	if err != nil {
		return nil, err
	}
	return append(outs, m), nil
}
