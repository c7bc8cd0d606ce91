// Package alerts pkg/alerts/types.go
package alerts

import (
	"time"

	"github.com/flexforge/beltmon/pkg/config"
)

// Type tags one kind of line condition. At most one unacknowledged alert
// per type exists in the active set.
type Type string

const (
	TypeSpeedAnomaly  Type = "speed_anomaly"
	TypeJamDetected   Type = "jam_detected"
	TypeVibrationHigh Type = "vibration_high"
	TypeEnvironmental Type = "environmental"
	TypeSensorFailure Type = "sensor_failure"
	TypeCommFailure   Type = "comm_failure"
)

// Level is the alert severity.
type Level string

const (
	Info     Level = "info"
	Warning  Level = "warning"
	Critical Level = "critical"
)

func levelRank(l Level) int {
	switch l {
	case Critical:
		return 2
	case Warning:
		return 1
	default:
		return 0
	}
}

// baseLevel is the severity a type carries before escalation.
func baseLevel(t Type) Level {
	switch t {
	case TypeJamDetected, TypeSensorFailure, TypeCommFailure:
		return Critical
	case TypeSpeedAnomaly, TypeVibrationHigh:
		return Warning
	default:
		return Info
	}
}

// Alert is one entry in the active set.
type Alert struct {
	Type         Type      `json:"type"`
	Level        Level     `json:"level"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
	Sent         bool      `json:"sent"`
}

const (
	defaultMaxActive        = 10
	defaultCooldown         = 60 * time.Second
	defaultCriticalCooldown = 5 * time.Second

	escalateWarningAfter  = 3
	escalateCriticalAfter = 5
)

// Config bounds the active alert table and the suppression windows.
// Critical alerts get a much shorter cool-down, not none.
type Config struct {
	MaxActive        int             `json:"max_active"`
	Cooldown         config.Duration `json:"cooldown"`
	CriticalCooldown config.Duration `json:"critical_cooldown"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.MaxActive <= 0 {
		c.MaxActive = defaultMaxActive
	}

	if time.Duration(c.Cooldown) <= 0 {
		c.Cooldown = config.Duration(defaultCooldown)
	}

	if time.Duration(c.CriticalCooldown) <= 0 {
		c.CriticalCooldown = config.Duration(defaultCriticalCooldown)
	}

	if time.Duration(c.CriticalCooldown) > time.Duration(c.Cooldown) {
		return errCooldownOrder
	}

	return nil
}
