// Package sensors pkg/sensors/interfaces.go

//go:generate mockgen -destination=mock_sensors.go -package=sensors github.com/flexforge/beltmon/pkg/sensors Probe

package sensors

import (
	"context"

	"github.com/flexforge/beltmon/pkg/models"
)

// Channel identifies one sensor group on the line.
type Channel string

const (
	ChannelSpeed       Channel = "speed"
	ChannelVibration   Channel = "vibration"
	ChannelEnvironment Channel = "environment"
)

// Probe reads one channel group into a sample. Implementations wrap real
// hardware transports; the simulator stands in when one is absent or fails
// to initialize.
type Probe interface {
	// Channel reports which sample fields this probe fills.
	Channel() Channel

	// Init prepares the underlying transport. A failed Init permanently
	// demotes the channel to simulated data.
	Init(ctx context.Context) error

	// Read fills this probe's fields of the sample.
	Read(ctx context.Context, sample *models.Sample) error

	// Close releases the transport.
	Close() error
}
