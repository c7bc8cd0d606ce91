package models

import "time"

// LineStatus is the read-only snapshot exposed to the status API and the
// health check. It composes derived pipeline metrics; nothing in the core
// depends on it being read.
type LineStatus struct {
	LineID           string    `json:"line_id"`
	Running          bool      `json:"running"`
	SpeedRPM         float64   `json:"speed_rpm"`
	PartsPerMin      int       `json:"parts_per_min"`
	EfficiencyScore  float64   `json:"efficiency_score"`
	MaintenanceHours float64   `json:"maintenance_hours"`
	JamActive        bool      `json:"jam_active"`
	ActiveAlerts     int       `json:"active_alerts"`
	LastError        string    `json:"last_error,omitempty"`
	LastUpdate       time.Time `json:"last_update"`
}
