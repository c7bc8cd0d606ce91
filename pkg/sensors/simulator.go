// Package sensors pkg/sensors/simulator.go
//
// Simulated probes generate plausible line behavior: speed wandering
// around nominal, vibration noise around a floor, slow environmental
// drift. Each probe owns its own RNG so channels stay independent and a
// seeded run is reproducible per channel.
package sensors

import (
	"context"
	"math/rand"

	"github.com/flexforge/beltmon/pkg/models"
)

// SimConfig shapes the simulated line.
type SimConfig struct {
	NominalSpeedRPM float64 `json:"nominal_speed_rpm"`
	VibrationFloorG float64 `json:"vibration_floor_g"`

	// Seed of 0 means non-deterministic.
	Seed int64 `json:"seed,omitempty"`
}

func (c *SimConfig) applyDefaults() {
	if c.NominalSpeedRPM <= 0 {
		c.NominalSpeedRPM = 60
	}

	if c.VibrationFloorG <= 0 {
		c.VibrationFloorG = 0.45
	}
}

func newRand(seed int64, offset int64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewSource(rand.Int63())) //nolint:gosec // simulation noise
	}

	return rand.New(rand.NewSource(seed + offset)) //nolint:gosec // simulation noise
}

// NewSimulated returns a simulated probe for the given channel.
func NewSimulated(channel Channel, cfg SimConfig) Probe {
	cfg.applyDefaults()

	switch channel {
	case ChannelVibration:
		return &simVibration{cfg: cfg, rng: newRand(cfg.Seed, 1)}
	case ChannelEnvironment:
		return &simEnvironment{
			rng:      newRand(cfg.Seed, 2),
			temp:     models.DefaultTempC,
			humidity: 45,
			pressure: models.DefaultPressureHPa,
		}
	default:
		return &simSpeed{cfg: cfg, rng: newRand(cfg.Seed, 0)}
	}
}

type simSpeed struct {
	cfg SimConfig
	rng *rand.Rand
}

func (*simSpeed) Channel() Channel           { return ChannelSpeed }
func (*simSpeed) Init(context.Context) error { return nil }
func (*simSpeed) Close() error               { return nil }

func (p *simSpeed) Read(_ context.Context, sample *models.Sample) error {
	// Wander within ±2% of nominal; the belt is always running in
	// simulation, parts arrive at a steady-ish rate.
	jitter := (p.rng.Float64()*2 - 1) * 0.02 * p.cfg.NominalSpeedRPM

	sample.Running = true
	sample.Operator = true
	sample.SpeedRPM = p.cfg.NominalSpeedRPM + jitter
	sample.PartsPerMin = 10 + p.rng.Intn(5)

	return nil
}

type simVibration struct {
	cfg SimConfig
	rng *rand.Rand
}

func (*simVibration) Channel() Channel           { return ChannelVibration }
func (*simVibration) Init(context.Context) error { return nil }
func (*simVibration) Close() error               { return nil }

func (p *simVibration) Read(_ context.Context, sample *models.Sample) error {
	sample.Vibration = p.cfg.VibrationFloorG + p.rng.Float64()*0.1

	return nil
}

type simEnvironment struct {
	rng      *rand.Rand
	temp     float64
	humidity float64
	pressure float64
}

func (*simEnvironment) Channel() Channel           { return ChannelEnvironment }
func (*simEnvironment) Init(context.Context) error { return nil }
func (*simEnvironment) Close() error               { return nil }

func (p *simEnvironment) Read(_ context.Context, sample *models.Sample) error {
	// Random walk with a weak pull back to the resting point, so drift
	// stays bounded over long runs.
	p.temp += (p.rng.Float64()*2-1)*0.1 + (models.DefaultTempC-p.temp)*0.01
	p.humidity += (p.rng.Float64()*2-1)*0.5 + (45-p.humidity)*0.01
	p.pressure += (p.rng.Float64()*2-1)*0.2 + (models.DefaultPressureHPa-p.pressure)*0.01

	sample.Temperature = p.temp
	sample.Humidity = p.humidity
	sample.Pressure = p.pressure
	sample.GasResistance = 50000 + uint32(p.rng.Intn(5000))

	return nil
}
