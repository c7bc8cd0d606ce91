// Package models pkg/models/sample.go
package models

import (
	"math"
	"time"
)

// Channel defaults substituted for non-finite sensor readings.
const (
	DefaultSpeedRPM    = 0.0
	DefaultVibrationG  = 0.0
	DefaultTempC       = 22.0
	DefaultHumidityPct = 50.0
	DefaultPressureHPa = 1013.25
)

// Sample is one acquisition tick from the sensor layer.
type Sample struct {
	Timestamp     time.Time `json:"timestamp"`
	Running       bool      `json:"running"`
	SpeedRPM      float64   `json:"speed_rpm"`
	PartsPerMin   int       `json:"parts_per_min"`
	Vibration     float64   `json:"vibration"`
	Temperature   float64   `json:"temp"`
	Humidity      float64   `json:"humidity"`
	Pressure      float64   `json:"pressure"`
	GasResistance uint32    `json:"gas_resistance"`
	Operator      bool      `json:"operator"`
}

// Sanitized returns a copy of the sample with non-finite float channels
// replaced by their defaults. The second return value reports whether any
// substitution happened.
func (s Sample) Sanitized() (Sample, bool) {
	replaced := false

	fix := func(v, def float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			replaced = true
			return def
		}

		return v
	}

	s.SpeedRPM = fix(s.SpeedRPM, DefaultSpeedRPM)
	s.Vibration = fix(s.Vibration, DefaultVibrationG)
	s.Temperature = fix(s.Temperature, DefaultTempC)
	s.Humidity = fix(s.Humidity, DefaultHumidityPct)
	s.Pressure = fix(s.Pressure, DefaultPressureHPa)

	return s, replaced
}
