// Package analysis pkg/analysis/analyzer.go

package analysis

import (
	"log"
	"math"

	"github.com/flexforge/beltmon/pkg/history"
	"github.com/flexforge/beltmon/pkg/models"
)

const (
	// Sentinel returned when no maintenance prediction is possible.
	MaintenanceUnknown = 999.0

	defaultRoomTempC    = 20.0
	defaultHumidityPct  = 50.0
	hoursPerTrendWindow = 24.0
)

// Analyzer owns the per-channel history buffers and the statistics derived
// from them. All state is mutated by Update only.
type Analyzer struct {
	cfg Config

	speed       *history.Buffer
	vibration   *history.Buffer
	temperature *history.Buffer
	humidity    *history.Buffer

	averageSpeed  float64
	speedVariance float64

	baseline            float64
	baselineEstablished bool
}

// NewAnalyzer creates an analyzer for the given line configuration. The
// speed and environmental buffers are pre-filled with neutral defaults so
// early averages stay in a sane range; the vibration buffer starts empty so
// the baseline calibrates from genuine samples.
func NewAnalyzer(cfg Config) *Analyzer {
	a := &Analyzer{
		cfg:         cfg,
		speed:       history.New(speedHistorySize),
		vibration:   history.New(vibrationHistorySize),
		temperature: history.New(tempHistorySize),
		humidity:    history.New(humidityHistorySize),
		baseline:    cfg.VibrationBaselineG,
	}

	a.speed.Fill(0)
	a.temperature.Fill(defaultRoomTempC)
	a.humidity.Fill(defaultHumidityPct)

	return a
}

// Update pushes one sample into the channel buffers and refreshes the
// derived speed statistics. The vibration baseline is established exactly
// once, the cycle the vibration buffer first becomes full, and is frozen
// afterward.
func (a *Analyzer) Update(sample models.Sample) {
	a.speed.Push(sample.SpeedRPM)
	a.averageSpeed = a.speed.Average()
	a.speedVariance = a.speed.Variance(a.averageSpeed)

	wasFull := a.vibration.Full()
	a.vibration.Push(sample.Vibration)

	if !a.baselineEstablished && !wasFull && a.vibration.Full() {
		a.baseline = a.vibration.Average()
		a.baselineEstablished = true

		log.Printf("Vibration baseline established: %.3fg", a.baseline)
	}

	a.temperature.Push(sample.Temperature)
	a.humidity.Push(sample.Humidity)
}

// Reset clears all buffers and re-applies the pre-fill defaults. The
// baseline stays frozen once established.
func (a *Analyzer) Reset() {
	a.speed.Reset()
	a.vibration.Reset()
	a.temperature.Reset()
	a.humidity.Reset()

	a.speed.Fill(0)
	a.temperature.Fill(defaultRoomTempC)
	a.humidity.Fill(defaultHumidityPct)

	a.averageSpeed = 0
	a.speedVariance = 0
}

func (a *Analyzer) AverageSpeed() float64  { return a.averageSpeed }
func (a *Analyzer) SpeedVariance() float64 { return a.speedVariance }

// CurrentVibration returns the newest vibration sample, 0 before any sample.
func (a *Analyzer) CurrentVibration() float64 {
	return a.vibration.Newest()
}

// VibrationTrend returns the least-squares slope of the vibration history.
// It reads 0 until the baseline is established; a half-filled buffer has no
// meaningful degradation signal.
func (a *Analyzer) VibrationTrend() float64 {
	if !a.baselineEstablished || a.vibration.Size() < 2 {
		return 0
	}

	return a.vibration.Trend()
}

// CurrentTemperature returns the newest temperature sample.
func (a *Analyzer) CurrentTemperature() float64 {
	if a.temperature.Empty() {
		return defaultRoomTempC
	}

	return a.temperature.Newest()
}

// CurrentHumidity returns the newest humidity sample.
func (a *Analyzer) CurrentHumidity() float64 {
	if a.humidity.Empty() {
		return defaultHumidityPct
	}

	return a.humidity.Newest()
}

// TemperatureVariance returns the variance of the temperature history.
func (a *Analyzer) TemperatureVariance() float64 {
	return a.temperature.Variance(a.temperature.Average())
}

// HumidityTrend returns the least-squares slope of the humidity history.
func (a *Analyzer) HumidityTrend() float64 {
	if a.humidity.Size() < 2 {
		return 0
	}

	return a.humidity.Trend()
}

func (a *Analyzer) VibrationBaseline() float64 { return a.baseline }
func (a *Analyzer) BaselineEstablished() bool  { return a.baselineEstablished }

// EfficiencyScore composes speed accuracy, vibration health and jam-free
// operation into a 0-100 score: 0.4*speed + 0.4*vibration + 0.2*jam, each
// sub-score clamped to [0,100].
func (a *Analyzer) EfficiencyScore(jamActive bool) float64 {
	speedScore := 100.0
	vibrationScore := 100.0
	jamScore := 100.0

	if a.averageSpeed > 0 {
		ratio := a.averageSpeed / a.cfg.NominalSpeedRPM
		speedScore = clampScore(100.0 * (1.0 - math.Abs(1.0-ratio)))
	}

	if a.baselineEstablished {
		vibrationScore = clampScore(100.0 * (1.0 - a.CurrentVibration()/a.cfg.VibrationCriticalG))
	}

	if jamActive {
		jamScore = 0
	}

	return speedScore*0.4 + vibrationScore*0.4 + jamScore*0.2
}

// PredictMaintenanceHours extrapolates the vibration trend linearly to the
// critical threshold, treating one trend window as a day. It returns
// MaintenanceUnknown when no baseline exists or vibration is not degrading.
func (a *Analyzer) PredictMaintenanceHours() float64 {
	if !a.baselineEstablished {
		return MaintenanceUnknown
	}

	trend := a.VibrationTrend()
	if trend <= 0 {
		return MaintenanceUnknown
	}

	remaining := a.cfg.VibrationCriticalG - a.CurrentVibration()

	hours := (remaining / trend) * hoursPerTrendWindow
	if hours < 0 {
		return 0
	}

	return hours
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 100 {
		return 100
	}

	return v
}
