// Package analysis pkg/analysis/processor.go

package analysis

import (
	"time"

	"github.com/flexforge/beltmon/pkg/models"
)

// Processor orchestrates the analyzer and detector each processing cycle
// and exposes the composed read-only queries the application layer and the
// alert handler consume.
type Processor struct {
	analyzer *Analyzer
	detector *Detector
}

// NewProcessor builds the full analysis pipeline for one conveyor line.
func NewProcessor(cfg Config) *Processor {
	return &Processor{
		analyzer: NewAnalyzer(cfg),
		detector: NewDetector(cfg),
	}
}

// Update runs one processing cycle. Statistics are refreshed first; the
// detector consumes the derived averages and baseline.
func (p *Processor) Update(sample models.Sample, now time.Time) {
	p.analyzer.Update(sample)
	p.detector.Observe(sample, now)
}

// SpeedAnomaly reports whether averaged speed is out of tolerance.
func (p *Processor) SpeedAnomaly() bool {
	return p.detector.DetectSpeedAnomaly(p.analyzer.AverageSpeed(), p.analyzer.SpeedVariance())
}

// JamDetected reports whether the jam state machine has confirmed a jam.
func (p *Processor) JamDetected() bool {
	return p.detector.IsJamDetected()
}

// VibrationAnomaly reports whether the vibration channel is anomalous.
func (p *Processor) VibrationAnomaly() bool {
	return p.detector.DetectVibrationAnomaly(p.analyzer.CurrentVibration(), p.analyzer.VibrationTrend())
}

// EnvironmentalAnomaly reports whether ambient conditions are anomalous.
func (p *Processor) EnvironmentalAnomaly() bool {
	return p.detector.DetectEnvironmentalAnomaly(
		p.analyzer.CurrentTemperature(),
		p.analyzer.CurrentHumidity(),
		p.analyzer.TemperatureVariance(),
	)
}

// EfficiencyScore returns the current composite efficiency score.
func (p *Processor) EfficiencyScore() float64 {
	return p.analyzer.EfficiencyScore(p.detector.IsJamDetected())
}

// MaintenanceHours returns the hours-to-maintenance prediction.
func (p *Processor) MaintenanceHours() float64 {
	return p.analyzer.PredictMaintenanceHours()
}

// Analyzer exposes the statistical queries.
func (p *Processor) Analyzer() *Analyzer { return p.analyzer }

// Detector exposes the jam state queries.
func (p *Processor) Detector() *Detector { return p.detector }
