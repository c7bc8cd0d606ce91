// Package alerts pkg/alerts/handler.go
//
// Alert lifecycle management for one conveyor line: a deduplicated,
// severity-ranked, rate-limited active set with acknowledgement and
// delivery tracking. Each alert type moves through
// active(unsent) -> active(sent) -> acknowledged -> cleared; cleared is
// simply absence from the set.
package alerts

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/flexforge/beltmon/pkg/analysis"
	"github.com/flexforge/beltmon/pkg/faults"
	"github.com/flexforge/beltmon/pkg/models"
)

// tracker records per-type trigger history for suppression and escalation.
// It is reset when the corresponding alert is cleared.
type tracker struct {
	lastTrigger time.Time
	count       int
}

// Handler owns the active alert table.
type Handler struct {
	cfg     Config
	line    analysis.Config
	rec     *faults.Recorder
	senders []Sender

	mu       sync.RWMutex
	active   []Alert
	trackers map[Type]*tracker
}

// NewHandler creates a handler delivering through the given senders. An
// alert is marked sent only once every sender has accepted it.
func NewHandler(cfg Config, line analysis.Config, rec *faults.Recorder, senders ...Sender) *Handler {
	return &Handler{
		cfg:      cfg,
		line:     line,
		rec:      rec,
		senders:  senders,
		trackers: make(map[Type]*tracker),
	}
}

// determineLevel escalates a type's base severity by its lifetime
// occurrence count.
func (h *Handler) determineLevel(t Type, occurrences int) Level {
	level := baseLevel(t)

	if occurrences > escalateCriticalAfter && levelRank(level) < levelRank(Critical) {
		return Critical
	}

	if occurrences > escalateWarningAfter && levelRank(level) < levelRank(Warning) {
		return Warning
	}

	return level
}

// Trigger records a new occurrence of the given condition. Within the
// type's suppression window the call is a no-op and returns ErrSuppressed;
// a full table drops the alert and returns ErrTableFull.
func (h *Handler) Trigger(t Type, message string, now time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	tr := h.trackers[t]
	if tr == nil {
		tr = &tracker{}
		h.trackers[t] = tr
	}

	level := h.determineLevel(t, tr.count)

	if !tr.lastTrigger.IsZero() {
		window := time.Duration(h.cfg.Cooldown)
		if level == Critical {
			window = time.Duration(h.cfg.CriticalCooldown)
		}

		if now.Sub(tr.lastTrigger) < window {
			return ErrSuppressed
		}
	}

	if err := h.upsert(t, level, message, now); err != nil {
		return err
	}

	tr.lastTrigger = now
	tr.count++

	log.Printf("ALERT [%s] %s: %s", level, t, message)

	return nil
}

// upsert refreshes an existing unacknowledged alert of the same type or
// appends a new one. Refreshing resets the sent flag so the alert is
// redelivered.
func (h *Handler) upsert(t Type, level Level, message string, now time.Time) error {
	for i := range h.active {
		if h.active[i].Type == t && !h.active[i].Acknowledged {
			h.active[i].Message = message
			h.active[i].Timestamp = now
			h.active[i].Sent = false

			if levelRank(level) > levelRank(h.active[i].Level) {
				h.active[i].Level = level
			}

			return nil
		}
	}

	if len(h.active) >= h.cfg.MaxActive {
		h.rec.Record(faults.KindBufferOverflow, "active alert table full, dropping "+string(t))

		return ErrTableFull
	}

	h.active = append(h.active, Alert{
		Type:      t,
		Level:     level,
		Message:   message,
		Timestamp: now,
	})

	return nil
}

// Acknowledge marks the active alert of the given type as acknowledged and
// reports the acknowledgement to the delivery sinks.
func (h *Handler) Acknowledge(ctx context.Context, t Type) error {
	h.mu.Lock()

	found := false

	for i := range h.active {
		if h.active[i].Type == t {
			h.active[i].Acknowledged = true
			found = true

			break
		}
	}
	h.mu.Unlock()

	if !found {
		return ErrUnknownAlert
	}

	payload := map[string]string{"alert_type": string(t), "action": "acknowledged"}

	for _, s := range h.senders {
		if err := s.SendEvent(ctx, "alert.acknowledged", payload); err != nil {
			log.Printf("Failed to report acknowledgement of %s: %v", t, err)
		}
	}

	log.Printf("Alert acknowledged: %s", t)

	return nil
}

// Clear removes the alert of the given type from the active set and resets
// its frequency tracker, so the next trigger is evaluated at base severity.
func (h *Handler) Clear(t Type) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clearLocked(t)
}

func (h *Handler) clearLocked(t Type) {
	for i := range h.active {
		if h.active[i].Type == t {
			h.active = append(h.active[:i], h.active[i+1:]...)
			break
		}
	}

	delete(h.trackers, t)
}

// ProcessAlerts auto-clears alerts whose underlying condition has resolved.
// It runs every processing cycle, independent of trigger calls, so an
// alert's presence tracks the condition rather than the last trigger.
func (h *Handler) ProcessAlerts(state models.Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if state.Running && state.PartsPerMin > 0 {
		if a := h.findLocked(TypeJamDetected); a != nil && !a.Acknowledged {
			h.clearLocked(TypeJamDetected)
		}
	}

	if math.Abs(state.SpeedRPM-h.line.NominalSpeedRPM) < h.line.ToleranceRPM() {
		h.clearLocked(TypeSpeedAnomaly)
	}

	if state.Temperature >= h.line.TempMinC && state.Temperature <= h.line.TempMaxC &&
		state.Humidity <= h.line.HumidityMaxPct {
		h.clearLocked(TypeEnvironmental)
	}
}

func (h *Handler) findLocked(t Type) *Alert {
	for i := range h.active {
		if h.active[i].Type == t {
			return &h.active[i]
		}
	}

	return nil
}

// SendPending attempts delivery for every unacknowledged, unsent alert.
// An alert is marked sent only when every sender accepted it; otherwise it
// stays pending for retry next cycle.
func (h *Handler) SendPending(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var lastErr error

	for i := range h.active {
		if h.active[i].Sent || h.active[i].Acknowledged {
			continue
		}

		delivered := true

		for _, s := range h.senders {
			if err := s.SendAlert(ctx, string(h.active[i].Type), h.active[i].Message, h.active[i].Level); err != nil {
				h.rec.Record(faults.KindTransportSend, string(h.active[i].Type))

				delivered = false
				lastErr = err

				break
			}
		}

		if delivered {
			h.active[i].Sent = true
		}
	}

	return lastErr
}

// HasPending reports whether any alert awaits delivery.
func (h *Handler) HasPending() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := range h.active {
		if !h.active[i].Sent && !h.active[i].Acknowledged {
			return true
		}
	}

	return false
}

// ActiveCount returns the number of unacknowledged alerts.
func (h *Handler) ActiveCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0

	for i := range h.active {
		if !h.active[i].Acknowledged {
			count++
		}
	}

	return count
}

// Active returns a snapshot of the active set.
func (h *Handler) Active() []Alert {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Alert, len(h.active))
	copy(out, h.active)

	return out
}
