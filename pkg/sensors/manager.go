// Package sensors pkg/sensors/manager.go
package sensors

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/flexforge/beltmon/pkg/faults"
	"github.com/flexforge/beltmon/pkg/models"
)

var channels = []Channel{ChannelSpeed, ChannelVibration, ChannelEnvironment}

// Manager resolves each channel to a working probe and composes samples.
// A probe that fails Init is demoted to simulated data for the life of the
// process; a probe that fails a single Read keeps its slot and the read
// falls back to the simulator for that tick only.
type Manager struct {
	cfg SimConfig
	rec *faults.Recorder

	mu        sync.RWMutex
	probes    map[Channel]Probe
	fallbacks map[Channel]Probe
	simulated map[Channel]bool
	lastError string
}

// NewManager wires the provided probes. Channels without a probe run
// simulated from the start.
func NewManager(cfg SimConfig, rec *faults.Recorder, probes ...Probe) *Manager {
	m := &Manager{
		cfg:       cfg,
		rec:       rec,
		probes:    make(map[Channel]Probe),
		fallbacks: make(map[Channel]Probe),
		simulated: make(map[Channel]bool),
	}

	for _, p := range probes {
		m.probes[p.Channel()] = p
	}

	return m
}

// Init initializes every channel, demoting failures to the simulator.
// It never returns an error: the pipeline runs on simulated data rather
// than not at all.
func (m *Manager) Init(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range channels {
		m.fallbacks[ch] = NewSimulated(ch, m.cfg)

		probe, ok := m.probes[ch]
		if !ok {
			m.probes[ch] = m.fallbacks[ch]
			m.simulated[ch] = true

			log.Printf("No %s probe configured, using simulated data", ch)

			continue
		}

		if err := probe.Init(ctx); err != nil {
			m.rec.Record(faults.KindSensorInitFailed, fmt.Sprintf("%s: %v", ch, err))
			log.Printf("Failed to initialize %s probe, falling back to simulated data: %v", ch, err)

			m.probes[ch] = m.fallbacks[ch]
			m.simulated[ch] = true
		}
	}
}

// Read composes one sample from all channels. Per-channel read failures
// substitute simulated values for this tick and record a fault.
func (m *Manager) Read(ctx context.Context) models.Sample {
	m.mu.Lock()
	defer m.mu.Unlock()

	sample := models.Sample{Timestamp: time.Now()}
	m.lastError = ""

	for _, ch := range channels {
		probe := m.probes[ch]
		if probe == nil {
			continue
		}

		if err := probe.Read(ctx, &sample); err != nil {
			m.rec.Record(faults.KindSensorReadTimeout, fmt.Sprintf("%s: %v", ch, err))
			m.lastError = fmt.Sprintf("%s read failed: %v", ch, err)

			_ = m.fallbacks[ch].Read(ctx, &sample)
		}
	}

	clean, replaced := sample.Sanitized()
	if replaced {
		m.rec.Record(faults.KindSensorDataInvalid, "non-finite channel value replaced")
	}

	return clean
}

// Simulated reports whether the channel was demoted at startup.
func (m *Manager) Simulated(ch Channel) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.simulated[ch]
}

// LastError returns the most recent read failure, empty when the last
// read was clean.
func (m *Manager) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.lastError
}

// Close releases all probes.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ch, probe := range m.probes {
		if err := probe.Close(); err != nil {
			log.Printf("Error closing %s probe: %v", ch, err)
		}
	}
}
