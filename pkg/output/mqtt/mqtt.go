package mqtt

import (
	"bytes"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/gowhr/pkg/output"
	"github.com/itohio/gowhr/pkg/report"
)

const (
	// defaults
	DefaultServer   = "tcp://localhost:1883"
	DefaultClientID = "gowhr-monitor"
	DefaultTopic    = "gowhr/report"

	publishTimeout = 5 * time.Second
	quiesceMs      = 250
)

// Config selects the broker and topic.
type Config struct {
	Server   string
	ClientID string
	Topic    string
	Username string
	Password string
}

// publisher is the part of mqtt.Client the output uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTOutput publishes each report's text block, unchanged, to one topic.
type MQTTOutput struct {
	client publisher
	topic  string
}

// NewMQTT connects to the broker.
func NewMQTT(cfg Config) (output.Output, error) {
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}

	opts := mqtt.NewClientOptions().AddBroker(cfg.Server).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}

	return newMQTT(client, cfg.Topic), nil
}

func newMQTT(client publisher, topic string) *MQTTOutput {
	if topic == "" {
		topic = DefaultTopic
	}
	return &MQTTOutput{client: client, topic: topic}
}

// Publish sends the text block with QoS 0, not retained.
func (m *MQTTOutput) Publish(r report.Report) error {
	var buf bytes.Buffer
	if err := report.Format(&buf, r); err != nil {
		return err
	}
	token := m.client.Publish(m.topic, 0, false, buf.Bytes())
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish to %s: timed out", m.topic)
	}
	return token.Error()
}

func (m *MQTTOutput) Close() error {
	if m.client != nil {
		m.client.Disconnect(quiesceMs)
	}
	return nil
}
