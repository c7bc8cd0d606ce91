// Package analysis pkg/analysis/detector.go

package analysis

import (
	"log"
	"math"
	"time"

	"github.com/flexforge/beltmon/pkg/models"
)

// Upward vibration slope below this is treated as stable.
const risingTrendMin = 0.01

// JamState is the jam detection state. A jam is a sustained low-vibration
// condition while the belt is nominally running above minimum speed.
type JamState int

const (
	JamNormal JamState = iota
	JamPending
	JamConfirmed
)

func (s JamState) String() string {
	switch s {
	case JamPending:
		return "pending"
	case JamConfirmed:
		return "jammed"
	default:
		return "normal"
	}
}

// Detector turns current readings plus derived statistics into anomaly
// signals. The jam state machine is the only multi-cycle state it owns;
// the remaining detectors are pure predicates over the line config.
type Detector struct {
	cfg          Config
	toleranceRPM float64

	state        JamState
	pendingSince time.Time
}

// NewDetector creates a detector in the JamNormal state.
func NewDetector(cfg Config) *Detector {
	return &Detector{
		cfg:          cfg,
		toleranceRPM: cfg.ToleranceRPM(),
	}
}

// Observe advances the jam state machine by one cycle. The caller reads the
// clock once per cycle and threads it through so every decision in the cycle
// sees the same "now".
func (d *Detector) Observe(sample models.Sample, now time.Time) {
	if !sample.Running || sample.SpeedRPM <= d.cfg.MinSpeedRPM {
		// Belt is not supposed to be moving; nothing to detect.
		d.reset(now)
		return
	}

	if sample.Vibration >= d.cfg.JamVibrationG {
		if d.state != JamNormal {
			log.Printf("Jam detection: vibration returned to normal (%.2fg)", sample.Vibration)
		}

		d.reset(now)

		return
	}

	switch d.state {
	case JamNormal:
		d.state = JamPending
		d.pendingSince = now

		log.Printf("Jam detection: low vibration (%.2fg < %.2fg) while running",
			sample.Vibration, d.cfg.JamVibrationG)
	case JamPending:
		if now.Sub(d.pendingSince) > time.Duration(d.cfg.JamDetectWindow) {
			d.state = JamConfirmed

			log.Printf("JAM DETECTED: low vibration for %s", now.Sub(d.pendingSince))
		}
	case JamConfirmed:
		// Stays jammed until the belt stops or vibration recovers.
	}
}

func (d *Detector) reset(now time.Time) {
	d.state = JamNormal
	d.pendingSince = now
}

// State returns the current jam state.
func (d *Detector) State() JamState { return d.state }

// IsJamDetected reports whether a jam is confirmed.
func (d *Detector) IsJamDetected() bool { return d.state == JamConfirmed }

// JamDuration returns how long the low-vibration condition has held, or 0
// in the normal state.
func (d *Detector) JamDuration(now time.Time) time.Duration {
	if d.state == JamNormal {
		return 0
	}

	return now.Sub(d.pendingSince)
}

// DetectSpeedAnomaly reports whether the averaged speed is anomalous.
// A stopped conveyor is not anomalous; instability (high variance) counts
// even without a net deviation from nominal.
func (d *Detector) DetectSpeedAnomaly(averageSpeed, speedVariance float64) bool {
	if averageSpeed < d.cfg.MinSpeedRPM {
		return false
	}

	deviation := math.Abs(averageSpeed - d.cfg.NominalSpeedRPM)
	unstable := speedVariance > d.toleranceRPM*0.5

	return deviation > d.toleranceRPM || unstable
}

// DetectVibrationAnomaly reports whether the vibration level is anomalous.
// The critical threshold is an absolute cutoff; the warning threshold only
// fires on an upward trend, so a stable-but-elevated line is not flagged.
func (d *Detector) DetectVibrationAnomaly(currentVibration, vibrationTrend float64) bool {
	if currentVibration > d.cfg.VibrationCriticalG {
		return true
	}

	return currentVibration > d.cfg.VibrationWarningG && vibrationTrend > risingTrendMin
}

// DetectEnvironmentalAnomaly reports whether ambient conditions are out of
// range or swinging rapidly.
func (d *Detector) DetectEnvironmentalAnomaly(temperature, humidity, tempVariance float64) bool {
	if temperature < d.cfg.TempMinC || temperature > d.cfg.TempMaxC {
		return true
	}

	if humidity > d.cfg.HumidityMaxPct {
		return true
	}

	return tempVariance > tempVarianceLimit
}
