package config

import (
	"fmt"
	"os"
	"time"

	"github.com/itohio/gowhr/pkg/probe"
	"gopkg.in/yaml.v3"
)

// Config represents the host tools' configuration. The device itself has no
// configuration; these values describe how to reach and mirror it.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Report  ReportConfig  `yaml:"report"`
	Tach    TachConfig    `yaml:"tach"`
	Analog  AnalogConfig  `yaml:"analog"`
	OneWire OneWireConfig `yaml:"onewire"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	History HistoryConfig `yaml:"history"`
	Record  RecordConfig  `yaml:"record"`
	Mock    MockConfig    `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// ReportConfig describes the report stream.
type ReportConfig struct {
	Period time.Duration `yaml:"period"`
	Probes []string      `yaml:"probes"` // 16 hex digit ROM codes, in report order
}

// TachConfig selects the pulse input on Linux boards.
type TachConfig struct {
	Pin string `yaml:"pin"`
}

// AnalogConfig selects the water level ADC on Linux boards.
type AnalogConfig struct {
	I2CBus     string `yaml:"i2c_bus"`
	I2CAddress uint16 `yaml:"i2c_address"`
	Channel    int    `yaml:"channel"`
	SampleRate int    `yaml:"sample_rate"`
}

// OneWireConfig selects the probe bus on Linux boards.
type OneWireConfig struct {
	Bus        string `yaml:"bus"`
	Resolution int    `yaml:"resolution"`
}

// MQTTConfig contains the optional MQTT output settings.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Server   string `yaml:"server"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// HistoryConfig bounds the plotted history.
type HistoryConfig struct {
	Window    time.Duration `yaml:"window"`
	MaxPoints int           `yaml:"max_points"`
}

// RecordConfig contains recording settings.
type RecordConfig struct {
	Directory string        `yaml:"directory"`
	Duration  time.Duration `yaml:"duration"`
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	RPM        float64       `yaml:"rpm"`         // Simulated shaft speed
	Jitter     float64       `yaml:"jitter"`      // Relative spread of each revolution
	WaterLevel float64       `yaml:"water_level"` // Starting analog count
	WaterStep  float64       `yaml:"water_step"`  // Max change per report
	Temps      []float32     `yaml:"temps"`       // Starting probe temperatures (°F)
	TempNoise  float32       `yaml:"temp_noise"`  // Max change per report (°F)
	Period     time.Duration `yaml:"period"`      // Report period
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		Report: ReportConfig{
			Period: 5 * time.Second,
			Probes: []string{"28EA6471000000D1", "28D6556E000000AA"},
		},
		Tach: TachConfig{
			Pin: "GPIO17",
		},
		Analog: AnalogConfig{
			I2CBus:     "",
			I2CAddress: 0x48,
			Channel:    0,
			SampleRate: 128,
		},
		OneWire: OneWireConfig{
			Bus:        "",
			Resolution: 12,
		},
		MQTT: MQTTConfig{
			Enabled:  false,
			Server:   "tcp://localhost:1883",
			ClientID: "gowhr-monitor",
			Topic:    "gowhr/report",
		},
		History: HistoryConfig{
			Window:    10 * time.Minute,
			MaxPoints: 100,
		},
		Record: RecordConfig{
			Directory: ".",
			Duration:  10 * time.Minute,
		},
		Mock: MockConfig{
			RPM:        1500,
			Jitter:     0.02,
			WaterLevel: 2048,
			WaterStep:  20,
			Temps:      []float32{72, 68},
			TempNoise:  0.2,
			Period:     time.Second,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ProbeAddresses parses the configured probe addresses in report order.
func (c *Config) ProbeAddresses() ([]probe.Address, error) {
	addrs := make([]probe.Address, 0, len(c.Report.Probes))
	for i, s := range c.Report.Probes {
		a, err := probe.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("probe %d: %w", i, err)
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

// ensureDefaults ensures that all required fields have default values if
// missing. Non-positive periods, rates and sizes count as missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate <= 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Report.Period <= 0 {
		c.Report.Period = def.Report.Period
	}
	if len(c.Report.Probes) == 0 {
		c.Report.Probes = def.Report.Probes
	}

	if c.Tach.Pin == "" {
		c.Tach.Pin = def.Tach.Pin
	}

	if c.Analog.I2CAddress == 0 {
		c.Analog.I2CAddress = def.Analog.I2CAddress
	}
	if c.Analog.SampleRate <= 0 {
		c.Analog.SampleRate = def.Analog.SampleRate
	}

	if c.OneWire.Resolution <= 0 {
		c.OneWire.Resolution = def.OneWire.Resolution
	}

	if c.MQTT.Server == "" {
		c.MQTT.Server = def.MQTT.Server
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = def.MQTT.Topic
	}

	if c.History.Window <= 0 {
		c.History.Window = def.History.Window
	}
	if c.History.MaxPoints <= 0 {
		c.History.MaxPoints = def.History.MaxPoints
	}

	if c.Record.Directory == "" {
		c.Record.Directory = def.Record.Directory
	}
	if c.Record.Duration <= 0 {
		c.Record.Duration = def.Record.Duration
	}

	if c.Mock.Period <= 0 {
		c.Mock.Period = def.Mock.Period
	}
	if len(c.Mock.Temps) == 0 {
		c.Mock.Temps = def.Mock.Temps
	}
}
