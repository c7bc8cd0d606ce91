// Package api pkg/api/interfaces.go

//go:generate mockgen -destination=mock_api.go -package=api github.com/flexforge/beltmon/pkg/api StatusProvider

package api

import (
	"context"

	"github.com/flexforge/beltmon/pkg/alerts"
	"github.com/flexforge/beltmon/pkg/faults"
	"github.com/flexforge/beltmon/pkg/models"
)

// StatusProvider is the read side of the monitor the API serves from,
// plus the acknowledgement entry point.
type StatusProvider interface {
	Status() models.LineStatus
	ActiveAlerts() []alerts.Alert
	LastSample() models.Sample
	Faults() []faults.Entry
	Acknowledge(ctx context.Context, t alerts.Type) error
}
