// Package telemetry pkg/telemetry/payload.go
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/flexforge/beltmon/pkg/models"
)

// Payload is the wire shape of one telemetry publish. Field names are part
// of the uplink contract; downstream dashboards key on them.
type Payload struct {
	LineID        string  `json:"line_id"`
	Timestamp     string  `json:"timestamp"`
	SpeedRPM      float64 `json:"speed_rpm"`
	PartsPerMin   int     `json:"parts_per_min"`
	Vibration     float64 `json:"vibration"`
	Temperature   float64 `json:"temp"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	GasResistance uint32  `json:"gas_resistance"`
	Running       bool    `json:"running"`
	Operator      bool    `json:"operator"`
}

// eventPayload wraps lifecycle events published on the event topic.
type eventPayload struct {
	LineID    string `json:"line_id"`
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Payload   any    `json:"payload,omitempty"`
}

// alertPayload is the alert topic's wire shape.
type alertPayload struct {
	LineID    string `json:"line_id"`
	Type      string `json:"type"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// FormatTelemetry serializes a sample for publishing. Non-finite channels
// are replaced by their defaults before encoding; the bool reports whether
// that happened, so callers can record a data fault.
func FormatTelemetry(lineID string, sample models.Sample) ([]byte, bool, error) {
	clean, replaced := sample.Sanitized()

	ts := clean.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	p := Payload{
		LineID:        lineID,
		Timestamp:     ts.UTC().Format(time.RFC3339Nano),
		SpeedRPM:      clean.SpeedRPM,
		PartsPerMin:   clean.PartsPerMin,
		Vibration:     clean.Vibration,
		Temperature:   clean.Temperature,
		Humidity:      clean.Humidity,
		Pressure:      clean.Pressure,
		GasResistance: clean.GasResistance,
		Running:       clean.Running,
		Operator:      clean.Operator,
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, replaced, fmt.Errorf("failed to marshal telemetry: %w", err)
	}

	return data, replaced, nil
}
