// Package monitor pkg/monitor/config.go
package monitor

import (
	"errors"
	"time"

	"github.com/flexforge/beltmon/pkg/alerts"
	"github.com/flexforge/beltmon/pkg/analysis"
	"github.com/flexforge/beltmon/pkg/config"
	"github.com/flexforge/beltmon/pkg/sensors"
	"github.com/flexforge/beltmon/pkg/telemetry"
)

const (
	defaultAcquireInterval = 100 * time.Millisecond
	defaultProcessInterval = 500 * time.Millisecond
	defaultSyncInterval    = 60 * time.Second
	defaultHealthInterval  = 30 * time.Second
	defaultFaultHistory    = 32
	defaultLineID          = "line-1"
)

var errIntervalOrder = errors.New("process_interval must not be shorter than acquire_interval")

// Config is the top-level service configuration, loaded from a JSON file.
type Config struct {
	LineID     string `json:"line_id"`
	ListenAddr string `json:"listen_addr"` // gRPC health endpoint
	HTTPAddr   string `json:"http_addr"`   // REST/websocket API

	AcquireInterval config.Duration `json:"acquire_interval"`
	ProcessInterval config.Duration `json:"process_interval"`
	SyncInterval    config.Duration `json:"sync_interval"`
	HealthInterval  config.Duration `json:"health_interval"`

	FaultHistory int `json:"fault_history"`

	Line       analysis.Config        `json:"line"`
	Alerts     alerts.Config          `json:"alerts"`
	Telemetry  telemetry.Config       `json:"telemetry"`
	Webhooks   []alerts.WebhookConfig `json:"webhooks,omitempty"`
	Simulation sensors.SimConfig      `json:"simulation"`
}

// Validate implements config.Validator, cascading into each section.
func (c *Config) Validate() error {
	if c.LineID == "" {
		c.LineID = defaultLineID
	}

	if c.ListenAddr == "" {
		c.ListenAddr = ":50061"
	}

	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8090"
	}

	if time.Duration(c.AcquireInterval) <= 0 {
		c.AcquireInterval = config.Duration(defaultAcquireInterval)
	}

	if time.Duration(c.ProcessInterval) <= 0 {
		c.ProcessInterval = config.Duration(defaultProcessInterval)
	}

	if time.Duration(c.ProcessInterval) < time.Duration(c.AcquireInterval) {
		return errIntervalOrder
	}

	if time.Duration(c.SyncInterval) <= 0 {
		c.SyncInterval = config.Duration(defaultSyncInterval)
	}

	if time.Duration(c.HealthInterval) <= 0 {
		c.HealthInterval = config.Duration(defaultHealthInterval)
	}

	if c.FaultHistory <= 0 {
		c.FaultHistory = defaultFaultHistory
	}

	if err := c.Line.Validate(); err != nil {
		return err
	}

	if err := c.Alerts.Validate(); err != nil {
		return err
	}

	return c.Telemetry.Validate()
}
