// Package telemetry pkg/telemetry/mqtt.go
//
// MQTT uplink for line telemetry, alerts and lifecycle events. The broker
// connection auto-reconnects; publishes while disconnected fail fast and
// the caller decides whether to retry.
package telemetry

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/time/rate"

	"github.com/flexforge/beltmon/pkg/alerts"
	"github.com/flexforge/beltmon/pkg/faults"
	"github.com/flexforge/beltmon/pkg/models"
)

const (
	publishTimeout = 5 * time.Second
	eventBurst     = 5
)

var (
	ErrNotConnected   = errors.New("mqtt client is not connected")
	errConnectTimeout = errors.New("mqtt connect timeout")
)

// Client publishes to <prefix>/<line_id>/{telemetry,alert,event}. It
// satisfies alerts.Sender so the alert handler can deliver through it.
type Client struct {
	cfg     Config
	lineID  string
	rec     *faults.Recorder
	client  mqtt.Client
	limiter *rate.Limiter
}

var _ alerts.Sender = (*Client)(nil)

// NewClient creates a disconnected client. Call Connect before publishing.
func NewClient(cfg Config, lineID string, rec *faults.Recorder) *Client {
	return &Client{
		cfg:     cfg,
		lineID:  lineID,
		rec:     rec,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.EventsPerMin)), eventBurst),
	}
}

// Connect dials the broker and blocks until the session is up or the
// configured timeout elapses.
func (c *Client) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.cfg.BrokerURL())

	clientID := c.cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("beltmon-%s-%d", c.lineID, time.Now().Unix())
	}

	opts.SetClientID(clientID)

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}

	if c.cfg.UseTLS {
		opts.SetTLSConfig(&tls.Config{
			InsecureSkipVerify: c.cfg.InsecureSkipTLS, //nolint:gosec // operator opt-in for lab brokers
		})
	}

	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(time.Duration(c.cfg.ConnectTimeout))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		log.Printf("MQTT connected to %s as %s", c.cfg.BrokerURL(), clientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		c.rec.Record(faults.KindCommLink, err.Error())
		log.Printf("MQTT connection lost: %v (will auto-reconnect)", err)
	}

	c.client = mqtt.NewClient(opts)

	log.Printf("Connecting to MQTT broker %s...", c.cfg.BrokerURL())

	token := c.client.Connect()
	if !token.WaitTimeout(time.Duration(c.cfg.ConnectTimeout)) {
		return errConnectTimeout
	}

	if token.Error() != nil {
		return fmt.Errorf("mqtt connect failed: %w", token.Error())
	}

	return nil
}

// Close disconnects from the broker, allowing in-flight publishes to drain.
func (c *Client) Close() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(1000)
	}
}

// IsConnected reports broker session state.
func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

// SendTelemetry publishes one sample. Non-finite channels are substituted
// with defaults and recorded as a data fault.
func (c *Client) SendTelemetry(_ context.Context, sample models.Sample) error {
	data, replaced, err := FormatTelemetry(c.lineID, sample)
	if err != nil {
		return err
	}

	if replaced {
		c.rec.Record(faults.KindSensorDataInvalid, "non-finite channel replaced before publish")
	}

	return c.publish(c.topic("telemetry"), data)
}

func (c *Client) publish(topic string, payload []byte) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, c.cfg.QoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: publish timed out on %s", ErrNotConnected, topic)
	}

	if token.Error() != nil {
		return fmt.Errorf("mqtt publish failed: %w", token.Error())
	}

	return nil
}

func (c *Client) topic(suffix string) string {
	return c.cfg.TopicPrefix + "/" + c.lineID + "/" + suffix
}

// SendAlert implements alerts.Sender.
func (c *Client) SendAlert(_ context.Context, alertType, message string, level alerts.Level) error {
	data, err := json.Marshal(alertPayload{
		LineID:    c.lineID,
		Type:      alertType,
		Level:     string(level),
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	return c.publish(c.topic("alert"), data)
}

// SendEvent implements alerts.Sender. Events above the configured rate are
// dropped; a flapping condition must not flood the broker.
func (c *Client) SendEvent(_ context.Context, event string, payload any) error {
	if !c.limiter.Allow() {
		log.Printf("Event %s dropped by rate limit", event)
		return nil
	}

	data, err := json.Marshal(eventPayload{
		LineID:    c.lineID,
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return c.publish(c.topic("event"), data)
}
