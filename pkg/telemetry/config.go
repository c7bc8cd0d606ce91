// Package telemetry pkg/telemetry/config.go
package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/flexforge/beltmon/pkg/config"
)

const (
	defaultPort           = 1883
	defaultTLSPort        = 8883
	defaultTopicPrefix    = "beltmon"
	defaultConnectTimeout = 10 * time.Second
	defaultEventsPerMin   = 30
)

var (
	errNoBroker   = errors.New("broker host is required when telemetry is enabled")
	errInvalidQoS = errors.New("qos must be 0, 1 or 2")
)

// Config describes the MQTT uplink.
type Config struct {
	Enabled         bool            `json:"enabled"`
	BrokerHost      string          `json:"broker_host"`
	BrokerPort      int             `json:"broker_port"`
	UseTLS          bool            `json:"use_tls"`
	InsecureSkipTLS bool            `json:"insecure_skip_tls"`
	Username        string          `json:"username,omitempty"`
	Password        string          `json:"password,omitempty"`
	ClientID        string          `json:"client_id,omitempty"`
	TopicPrefix     string          `json:"topic_prefix"`
	QoS             byte            `json:"qos"`
	ConnectTimeout  config.Duration `json:"connect_timeout"`

	// EventsPerMin caps lifecycle event publishes; telemetry and alerts
	// are never rate limited.
	EventsPerMin int `json:"events_per_min"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.Enabled && c.BrokerHost == "" {
		return errNoBroker
	}

	if c.QoS > 2 {
		return errInvalidQoS
	}

	if c.BrokerPort <= 0 {
		if c.UseTLS {
			c.BrokerPort = defaultTLSPort
		} else {
			c.BrokerPort = defaultPort
		}
	}

	if c.TopicPrefix == "" {
		c.TopicPrefix = defaultTopicPrefix
	}

	if time.Duration(c.ConnectTimeout) <= 0 {
		c.ConnectTimeout = config.Duration(defaultConnectTimeout)
	}

	if c.EventsPerMin <= 0 {
		c.EventsPerMin = defaultEventsPerMin
	}

	return nil
}

// BrokerURL returns the paho broker URL.
func (c *Config) BrokerURL() string {
	protocol := "tcp"
	if c.UseTLS {
		protocol = "tls"
	}

	return fmt.Sprintf("%s://%s:%d", protocol, c.BrokerHost, c.BrokerPort)
}
