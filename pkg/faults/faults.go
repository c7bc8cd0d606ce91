// Package faults pkg/faults/faults.go
//
// Bounded in-memory fault history for diagnostics. Recorders are passed
// explicitly into the components that report through them; there is no
// process-wide instance, so independent pipelines can coexist in tests.
package faults

import (
	"log"
	"sync"
	"time"
)

// Kind classifies a fault. No kind is fatal to the pipeline; recovery is
// substitution, retry, or degradation to simulated data.
type Kind int

const (
	KindNone Kind = iota
	KindSensorInitFailed
	KindSensorReadTimeout
	KindSensorDataInvalid
	KindCommLink
	KindTransportSend
	KindConfigValidation
	KindBufferOverflow
	KindInvalidParameter
)

func (k Kind) String() string {
	switch k {
	case KindSensorInitFailed:
		return "sensor_init_failed"
	case KindSensorReadTimeout:
		return "sensor_read_timeout"
	case KindSensorDataInvalid:
		return "sensor_data_invalid"
	case KindCommLink:
		return "comm_link_error"
	case KindTransportSend:
		return "transport_send_failed"
	case KindConfigValidation:
		return "config_validation_error"
	case KindBufferOverflow:
		return "buffer_overflow"
	case KindInvalidParameter:
		return "invalid_parameter"
	default:
		return "none"
	}
}

// Severity of a recorded fault.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "INFO"
	}
}

// DefaultSeverity maps each kind to its default severity. Callers may
// override via RecordSeverity.
func DefaultSeverity(k Kind) Severity {
	switch k {
	case KindSensorInitFailed, KindCommLink:
		return SeverityCritical
	case KindSensorReadTimeout, KindTransportSend, KindConfigValidation:
		return SeverityError
	case KindSensorDataInvalid, KindBufferOverflow:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Entry is one recorded fault.
type Entry struct {
	Kind      Kind      `json:"kind"`
	Severity  Severity  `json:"severity"`
	Context   string    `json:"context,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder retains the most recent N faults, overwriting the oldest.
type Recorder struct {
	mu      sync.RWMutex
	entries []Entry
	head    int
	size    int
	total   int
}

// NewRecorder creates a recorder retaining up to capacity entries.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 1
	}

	return &Recorder{entries: make([]Entry, capacity)}
}

// Record logs a fault with its default severity.
func (r *Recorder) Record(k Kind, context string) {
	r.RecordSeverity(k, DefaultSeverity(k), context)
}

// RecordSeverity logs a fault with an explicit severity.
func (r *Recorder) RecordSeverity(k Kind, severity Severity, context string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.head] = Entry{
		Kind:      k,
		Severity:  severity,
		Context:   context,
		Timestamp: time.Now(),
	}
	r.head = (r.head + 1) % len(r.entries)

	if r.size < len(r.entries) {
		r.size++
	}

	r.total++

	log.Printf("FAULT [%s] %s: %s", severity, k, context)
}

// Last returns the most recently recorded fault.
func (r *Recorder) Last() (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.size == 0 {
		return Entry{}, false
	}

	return r.entries[(r.head-1+len(r.entries))%len(r.entries)], true
}

// HasCritical reports whether any retained fault is critical.
func (r *Recorder) HasCritical() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := 0; i < r.size; i++ {
		if r.entries[i].Severity == SeverityCritical {
			return true
		}
	}

	return false
}

// Count returns the total number of faults recorded, including overwritten.
func (r *Recorder) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.total
}

// History returns the retained faults, oldest first.
func (r *Recorder) History() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, r.size)

	oldest := (r.head - r.size + len(r.entries)) % len(r.entries)
	for i := 0; i < r.size; i++ {
		out[i] = r.entries[(oldest+i)%len(r.entries)]
	}

	return out
}

// Clear discards the retained history. The total count is preserved.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.head = 0
	r.size = 0
}
