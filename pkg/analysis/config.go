// Package analysis pkg/analysis/config.go

package analysis

import (
	"time"

	"github.com/flexforge/beltmon/pkg/config"
)

const (
	defaultNominalSpeedRPM    = 60.0
	defaultMinSpeedRPM        = 5.0
	defaultSpeedTolerancePct  = 10.0
	defaultVibrationBaselineG = 0.5
	defaultVibrationWarningG  = 1.0
	defaultVibrationCriticalG = 2.0
	defaultJamVibrationG      = 0.3
	defaultJamDetectWindow    = 5 * time.Second
	defaultTempMinC           = 10.0
	defaultTempMaxC           = 40.0
	defaultHumidityMaxPct     = 80.0

	// Rapid temperature swings count as anomalous regardless of bounds.
	tempVarianceLimit = 5.0

	speedHistorySize     = 10
	vibrationHistorySize = 30
	tempHistorySize      = 10
	humidityHistorySize  = 10
)

// Config holds the conveyor line parameters and detection thresholds.
// Jam timing and the jam vibration threshold vary per installation and are
// deliberately configuration, not constants.
type Config struct {
	NominalSpeedRPM    float64         `json:"nominal_speed_rpm"`
	MinSpeedRPM        float64         `json:"min_speed_rpm"`
	SpeedTolerancePct  float64         `json:"speed_tolerance_pct"`
	VibrationBaselineG float64         `json:"vibration_baseline_g"`
	VibrationWarningG  float64         `json:"vibration_warning_g"`
	VibrationCriticalG float64         `json:"vibration_critical_g"`
	JamVibrationG      float64         `json:"jam_vibration_g"`
	JamDetectWindow    config.Duration `json:"jam_detect_window"`
	TempMinC           float64         `json:"temp_min_c"`
	TempMaxC           float64         `json:"temp_max_c"`
	HumidityMaxPct     float64         `json:"humidity_max_pct"`
}

// Validate implements config.Validator. Zero fields take line defaults.
func (c *Config) Validate() error {
	if c.NominalSpeedRPM <= 0 {
		c.NominalSpeedRPM = defaultNominalSpeedRPM
	}

	if c.MinSpeedRPM <= 0 {
		c.MinSpeedRPM = defaultMinSpeedRPM
	}

	if c.MinSpeedRPM >= c.NominalSpeedRPM {
		return errMinSpeedTooHigh
	}

	if c.SpeedTolerancePct <= 0 {
		c.SpeedTolerancePct = defaultSpeedTolerancePct
	}

	if c.VibrationBaselineG <= 0 {
		c.VibrationBaselineG = defaultVibrationBaselineG
	}

	if c.VibrationWarningG <= 0 {
		c.VibrationWarningG = defaultVibrationWarningG
	}

	if c.VibrationCriticalG <= 0 {
		c.VibrationCriticalG = defaultVibrationCriticalG
	}

	if c.VibrationWarningG >= c.VibrationCriticalG {
		return errVibrationThresholds
	}

	if c.JamVibrationG <= 0 {
		c.JamVibrationG = defaultJamVibrationG
	}

	if time.Duration(c.JamDetectWindow) <= 0 {
		c.JamDetectWindow = config.Duration(defaultJamDetectWindow)
	}

	if c.TempMinC == 0 && c.TempMaxC == 0 {
		c.TempMinC = defaultTempMinC
		c.TempMaxC = defaultTempMaxC
	}

	if c.TempMinC >= c.TempMaxC {
		return errTempBounds
	}

	if c.HumidityMaxPct <= 0 {
		c.HumidityMaxPct = defaultHumidityMaxPct
	}

	return nil
}

// ToleranceRPM returns the acceptable speed deviation in RPM.
func (c *Config) ToleranceRPM() float64 {
	return c.NominalSpeedRPM * c.SpeedTolerancePct / 100.0
}
