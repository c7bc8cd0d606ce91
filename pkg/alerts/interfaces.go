// Package alerts pkg/alerts/interfaces.go

//go:generate mockgen -destination=mock_alerts.go -package=alerts github.com/flexforge/beltmon/pkg/alerts Sender

package alerts

import "context"

// Sender delivers alerts and events to an external sink. Delivery either
// succeeds or fails within the call; queuing and retry beyond the handler's
// one-cycle retry are the sink's concern.
type Sender interface {
	// SendAlert delivers one alert notification.
	SendAlert(ctx context.Context, alertType, message string, level Level) error

	// SendEvent delivers a lifecycle event (e.g. an acknowledgement).
	SendEvent(ctx context.Context, event string, payload any) error
}
