package faults

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderBoundedHistory(t *testing.T) {
	r := NewRecorder(3)

	r.Record(KindSensorDataInvalid, "speed NaN")
	r.Record(KindTransportSend, "publish failed")
	r.Record(KindSensorReadTimeout, "encoder")
	r.Record(KindBufferOverflow, "telemetry")

	history := r.History()
	require.Len(t, history, 3)
	assert.Equal(t, KindTransportSend, history[0].Kind, "oldest entry must have been overwritten")
	assert.Equal(t, KindBufferOverflow, history[2].Kind)
	assert.Equal(t, 4, r.Count())
}

func TestRecorderLast(t *testing.T) {
	r := NewRecorder(5)

	_, ok := r.Last()
	assert.False(t, ok)

	r.Record(KindCommLink, "broker unreachable")

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, KindCommLink, last.Kind)
	assert.Equal(t, SeverityCritical, last.Severity)
}

func TestRecorderHasCritical(t *testing.T) {
	r := NewRecorder(5)

	r.Record(KindSensorDataInvalid, "vibration NaN")
	assert.False(t, r.HasCritical())

	r.Record(KindSensorInitFailed, "imu")
	assert.True(t, r.HasCritical())

	r.Clear()
	assert.False(t, r.HasCritical())
}

func TestSeverityOverride(t *testing.T) {
	r := NewRecorder(2)

	r.RecordSeverity(KindSensorDataInvalid, SeverityCritical, "persistent garbage")

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, SeverityCritical, last.Severity)
}

func TestDefaultSeverities(t *testing.T) {
	assert.Equal(t, SeverityCritical, DefaultSeverity(KindSensorInitFailed))
	assert.Equal(t, SeverityCritical, DefaultSeverity(KindCommLink))
	assert.Equal(t, SeverityError, DefaultSeverity(KindTransportSend))
	assert.Equal(t, SeverityWarning, DefaultSeverity(KindSensorDataInvalid))
	assert.Equal(t, SeverityInfo, DefaultSeverity(KindNone))
}
