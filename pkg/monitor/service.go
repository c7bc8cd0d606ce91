// Package monitor pkg/monitor/service.go
//
// Service is the conveyor line supervisor: it acquires samples, runs the
// analysis pipeline, manages the alert table and pushes telemetry, each on
// its own cadence inside one goroutine.
package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/flexforge/beltmon/pkg/alerts"
	"github.com/flexforge/beltmon/pkg/analysis"
	"github.com/flexforge/beltmon/pkg/faults"
	"github.com/flexforge/beltmon/pkg/models"
	"github.com/flexforge/beltmon/pkg/sensors"
	"github.com/flexforge/beltmon/pkg/telemetry"
)

// Service runs the monitoring pipeline for one line. It implements
// lifecycle.Service.
type Service struct {
	cfg       Config
	rec       *faults.Recorder
	source    *sensors.Manager
	processor *analysis.Processor
	handler   *alerts.Handler
	uplink    *telemetry.Client

	mu         sync.RWMutex
	lastSample models.Sample

	done      chan struct{}
	closeOnce sync.Once
}

// NewService builds the pipeline from a validated config. Probes beyond
// the built-in simulator are passed by the caller.
func NewService(cfg Config, probes ...sensors.Probe) *Service {
	rec := faults.NewRecorder(cfg.FaultHistory)

	var (
		uplink  *telemetry.Client
		senders []alerts.Sender
	)

	if cfg.Telemetry.Enabled {
		uplink = telemetry.NewClient(cfg.Telemetry, cfg.LineID, rec)
		senders = append(senders, uplink)
	}

	for _, wh := range cfg.Webhooks {
		if wh.Enabled {
			senders = append(senders, alerts.NewWebhookSender(wh, cfg.LineID))
		}
	}

	return &Service{
		cfg:       cfg,
		rec:       rec,
		source:    sensors.NewManager(cfg.Simulation, rec, probes...),
		processor: analysis.NewProcessor(cfg.Line),
		handler:   alerts.NewHandler(cfg.Alerts, cfg.Line, rec, senders...),
		uplink:    uplink,
		done:      make(chan struct{}),
	}
}

// Start initializes the sensor layer and runs the pipeline loop until the
// context is canceled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	log.Printf("Starting line monitor for %s", s.cfg.LineID)

	s.source.Init(ctx)

	if s.uplink != nil {
		if err := s.uplink.Connect(); err != nil {
			// Keep monitoring; the client retries in the background and
			// publishes fail fast until the session is up.
			s.rec.Record(faults.KindCommLink, err.Error())
			log.Printf("Telemetry uplink unavailable, continuing: %v", err)
		}
	}

	return s.run(ctx)
}

// Stop shuts the pipeline down.
func (s *Service) Stop(_ context.Context) error {
	s.closeOnce.Do(func() {
		close(s.done)
	})

	if s.uplink != nil {
		s.uplink.Close()
	}

	s.source.Close()

	log.Printf("Line monitor for %s stopped", s.cfg.LineID)

	return nil
}

func (s *Service) run(ctx context.Context) error {
	acquire := time.NewTicker(time.Duration(s.cfg.AcquireInterval))
	defer acquire.Stop()

	process := time.NewTicker(time.Duration(s.cfg.ProcessInterval))
	defer process.Stop()

	syncTick := time.NewTicker(time.Duration(s.cfg.SyncInterval))
	defer syncTick.Stop()

	health := time.NewTicker(time.Duration(s.cfg.HealthInterval))
	defer health.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-acquire.C:
			s.acquireStep(ctx)
		case <-process.C:
			s.processStep(ctx, time.Now())
		case <-syncTick.C:
			s.syncStep(ctx)
		case <-health.C:
			s.healthStep()
		}
	}
}

// acquireStep reads one sample from the sensor layer.
func (s *Service) acquireStep(ctx context.Context) {
	sample := s.source.Read(ctx)

	s.mu.Lock()
	s.lastSample = sample
	s.mu.Unlock()
}

// processStep runs the analysis pipeline on the latest sample and drives
// the alert lifecycle.
func (s *Service) processStep(ctx context.Context, now time.Time) {
	s.mu.Lock()
	sample := s.lastSample

	if sample.Timestamp.IsZero() {
		s.mu.Unlock()
		return
	}

	s.processor.Update(sample, now)
	s.mu.Unlock()

	s.triggerAlerts(sample, now)
	s.handler.ProcessAlerts(sample)

	if s.handler.HasPending() {
		if err := s.handler.SendPending(ctx); err != nil {
			log.Printf("Alert delivery incomplete, will retry: %v", err)
		}
	}
}

func (s *Service) triggerAlerts(sample models.Sample, now time.Time) {
	trigger := func(t alerts.Type, msg string) {
		if err := s.handler.Trigger(t, msg, now); err != nil {
			return // suppressed or table full, both already accounted for
		}
	}

	if s.processor.JamDetected() {
		trigger(alerts.TypeJamDetected,
			fmt.Sprintf("Belt jam detected, stalled for %s", s.processor.Detector().JamDuration(now).Round(time.Second)))
	}

	if s.processor.SpeedAnomaly() {
		trigger(alerts.TypeSpeedAnomaly,
			fmt.Sprintf("Belt speed %.1f RPM outside tolerance of %.1f RPM nominal",
				s.processor.Analyzer().AverageSpeed(), s.cfg.Line.NominalSpeedRPM))
	}

	if s.processor.VibrationAnomaly() {
		trigger(alerts.TypeVibrationHigh,
			fmt.Sprintf("Vibration %.2fg above threshold (baseline %.2fg)",
				s.processor.Analyzer().CurrentVibration(), s.processor.Analyzer().VibrationBaseline()))
	}

	if s.processor.EnvironmentalAnomaly() {
		trigger(alerts.TypeEnvironmental,
			fmt.Sprintf("Ambient conditions out of range: %.1fC / %.0f%% RH",
				sample.Temperature, sample.Humidity))
	}

	if lastErr := s.source.LastError(); lastErr != "" {
		trigger(alerts.TypeSensorFailure, lastErr)
	}

	if s.uplink != nil && !s.uplink.IsConnected() {
		trigger(alerts.TypeCommFailure, "telemetry uplink disconnected")
	}
}

// syncStep pushes the latest sample to the uplink.
func (s *Service) syncStep(ctx context.Context) {
	if s.uplink == nil {
		return
	}

	sample := s.LastSample()
	if sample.Timestamp.IsZero() {
		return
	}

	if err := s.uplink.SendTelemetry(ctx, sample); err != nil {
		log.Printf("Telemetry publish failed: %v", err)
	}
}

// healthStep logs a one-line status summary.
func (s *Service) healthStep() {
	status := s.Status()

	log.Printf("Line %s: running=%t speed=%.1f eff=%.1f jam=%t alerts=%d faults=%d",
		status.LineID, status.Running, status.SpeedRPM, status.EfficiencyScore,
		status.JamActive, status.ActiveAlerts, s.rec.Count())
}

// LastSample returns the most recently acquired sample.
func (s *Service) LastSample() models.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastSample
}

// Status composes the line snapshot served by the API and health log.
func (s *Service) Status() models.LineStatus {
	lastError := s.source.LastError()

	s.mu.RLock()
	sample := s.lastSample
	efficiency := s.processor.EfficiencyScore()
	maintenance := s.processor.MaintenanceHours()
	jam := s.processor.JamDetected()
	s.mu.RUnlock()

	return models.LineStatus{
		LineID:           s.cfg.LineID,
		Running:          sample.Running,
		SpeedRPM:         sample.SpeedRPM,
		PartsPerMin:      sample.PartsPerMin,
		EfficiencyScore:  efficiency,
		MaintenanceHours: maintenance,
		JamActive:        jam,
		ActiveAlerts:     s.handler.ActiveCount(),
		LastError:        lastError,
		LastUpdate:       sample.Timestamp,
	}
}

// ActiveAlerts returns the current alert table snapshot.
func (s *Service) ActiveAlerts() []alerts.Alert {
	return s.handler.Active()
}

// Acknowledge marks an alert as acknowledged on behalf of an operator.
func (s *Service) Acknowledge(ctx context.Context, t alerts.Type) error {
	return s.handler.Acknowledge(ctx, t)
}

// Faults returns the retained fault history.
func (s *Service) Faults() []faults.Entry {
	return s.rec.History()
}
