package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/flexforge/beltmon/pkg/analysis"
	"github.com/flexforge/beltmon/pkg/config"
	"github.com/flexforge/beltmon/pkg/faults"
	"github.com/flexforge/beltmon/pkg/models"
)

func alertConfig(t *testing.T) Config {
	t.Helper()

	cfg := Config{}
	require.NoError(t, cfg.Validate())

	return cfg
}

func lineConfig(t *testing.T) analysis.Config {
	t.Helper()

	cfg := analysis.Config{}
	require.NoError(t, cfg.Validate())

	return cfg
}

func newTestHandler(t *testing.T, senders ...Sender) *Handler {
	t.Helper()

	return NewHandler(alertConfig(t), lineConfig(t), faults.NewRecorder(16), senders...)
}

func TestTriggerSuppression(t *testing.T) {
	h := newTestHandler(t)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, h.Trigger(TypeSpeedAnomaly, "speed out of range", base))

	err := h.Trigger(TypeSpeedAnomaly, "speed out of range", base.Add(30*time.Second))
	assert.ErrorIs(t, err, ErrSuppressed)
	assert.Equal(t, 1, h.ActiveCount())

	// Outside the window the trigger goes through again.
	require.NoError(t, h.Trigger(TypeSpeedAnomaly, "speed still out of range", base.Add(61*time.Second)))
	assert.Equal(t, 1, h.ActiveCount())
}

func TestCriticalSuppressionWindowIsShorter(t *testing.T) {
	h := newTestHandler(t)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, h.Trigger(TypeJamDetected, "belt jammed", base))

	err := h.Trigger(TypeJamDetected, "belt jammed", base.Add(3*time.Second))
	assert.ErrorIs(t, err, ErrSuppressed)

	require.NoError(t, h.Trigger(TypeJamDetected, "belt jammed", base.Add(6*time.Second)))
}

func TestUpdateInPlaceRefreshesExistingAlert(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := NewMockSender(ctrl)
	h := newTestHandler(t, sender)

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, h.Trigger(TypeSpeedAnomaly, "first", base))

	sender.EXPECT().SendAlert(gomock.Any(), string(TypeSpeedAnomaly), "first", Warning).Return(nil)
	require.NoError(t, h.SendPending(context.Background()))
	assert.False(t, h.HasPending())

	// Re-trigger after the window: same slot, refreshed, pending again.
	require.NoError(t, h.Trigger(TypeSpeedAnomaly, "second", base.Add(61*time.Second)))

	active := h.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "second", active[0].Message)
	assert.Equal(t, base.Add(61*time.Second), active[0].Timestamp)
	assert.False(t, active[0].Sent)
	assert.True(t, h.HasPending())
}

func TestTableFullDropsNewAlerts(t *testing.T) {
	cfg := Config{MaxActive: 2}
	require.NoError(t, cfg.Validate())

	rec := faults.NewRecorder(4)
	h := NewHandler(cfg, lineConfig(t), rec)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, h.Trigger(TypeSpeedAnomaly, "a", base))
	require.NoError(t, h.Trigger(TypeVibrationHigh, "b", base))

	err := h.Trigger(TypeEnvironmental, "c", base)
	assert.ErrorIs(t, err, ErrTableFull)
	assert.Equal(t, 2, h.ActiveCount())

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, faults.KindBufferOverflow, last.Kind)
}

func TestEscalationRaisesLevelOnRepeats(t *testing.T) {
	h := newTestHandler(t)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	trigger := func(n int) Level {
		now := base.Add(time.Duration(n) * 61 * time.Second)
		require.NoError(t, h.Trigger(TypeEnvironmental, "temperature out of range", now))

		active := h.Active()
		require.Len(t, active, 1)

		return active[0].Level
	}

	for i := 0; i < 4; i++ {
		assert.Equal(t, Info, trigger(i))
	}

	// More than three occurrences escalates to warning, more than five
	// to critical.
	assert.Equal(t, Warning, trigger(4))
	assert.Equal(t, Warning, trigger(5))
	assert.Equal(t, Critical, trigger(6))
}

func TestClearResetsEscalation(t *testing.T) {
	h := newTestHandler(t)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Trigger(TypeEnvironmental, "humid", base.Add(time.Duration(i)*61*time.Second)))
	}

	require.Equal(t, Warning, h.Active()[0].Level)

	h.Clear(TypeEnvironmental)
	assert.Equal(t, 0, h.ActiveCount())

	// Frequency history is gone with the alert.
	require.NoError(t, h.Trigger(TypeEnvironmental, "humid", base.Add(time.Hour)))
	assert.Equal(t, Info, h.Active()[0].Level)
}

func TestProcessAlertsAutoClear(t *testing.T) {
	healthy := models.Sample{
		Running:     true,
		SpeedRPM:    60,
		PartsPerMin: 12,
		Temperature: 22,
		Humidity:    50,
	}

	tests := []struct {
		name  string
		typ   Type
		state models.Sample
		want  int
	}{
		{"jam clears when parts flow", TypeJamDetected, healthy, 0},
		{"speed clears within tolerance", TypeSpeedAnomaly, healthy, 0},
		{"environmental clears in range", TypeEnvironmental, healthy, 0},
		{
			"jam persists while stopped",
			TypeJamDetected,
			models.Sample{Running: false, Temperature: 22, Humidity: 50, SpeedRPM: 60},
			1,
		},
		{
			"speed persists out of tolerance",
			TypeSpeedAnomaly,
			models.Sample{Running: true, SpeedRPM: 40, PartsPerMin: 12, Temperature: 22, Humidity: 50},
			1,
		},
		{
			"environmental persists when hot",
			TypeEnvironmental,
			models.Sample{Running: true, SpeedRPM: 60, PartsPerMin: 12, Temperature: 55, Humidity: 50},
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t)
			base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

			require.NoError(t, h.Trigger(tt.typ, "condition", base))

			h.ProcessAlerts(tt.state)
			assert.Equal(t, tt.want, h.ActiveCount())
		})
	}
}

func TestProcessAlertsKeepsAcknowledgedJam(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := NewMockSender(ctrl)
	sender.EXPECT().SendEvent(gomock.Any(), "alert.acknowledged", gomock.Any()).Return(nil)

	h := newTestHandler(t, sender)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, h.Trigger(TypeJamDetected, "belt jammed", base))
	require.NoError(t, h.Acknowledge(context.Background(), TypeJamDetected))

	// An operator already owns this one; recovery must not yank it away.
	h.ProcessAlerts(models.Sample{Running: true, SpeedRPM: 60, PartsPerMin: 12, Temperature: 22, Humidity: 50})

	active := h.Active()
	require.Len(t, active, 1)
	assert.True(t, active[0].Acknowledged)
}

func TestAcknowledgeUnknownType(t *testing.T) {
	h := newTestHandler(t)

	err := h.Acknowledge(context.Background(), TypeCommFailure)
	assert.ErrorIs(t, err, ErrUnknownAlert)
}

func TestSendPendingRetriesFailedDelivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := NewMockSender(ctrl)
	h := newTestHandler(t, sender)

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, h.Trigger(TypeVibrationHigh, "vibration rising", base))

	errDown := errors.New("sink unavailable")
	sender.EXPECT().
		SendAlert(gomock.Any(), string(TypeVibrationHigh), "vibration rising", Warning).
		Return(errDown)

	err := h.SendPending(context.Background())
	assert.ErrorIs(t, err, errDown)
	assert.True(t, h.HasPending(), "failed delivery must stay pending")

	// Next cycle the sink is back.
	sender.EXPECT().
		SendAlert(gomock.Any(), string(TypeVibrationHigh), "vibration rising", Warning).
		Return(nil)

	require.NoError(t, h.SendPending(context.Background()))
	assert.False(t, h.HasPending())
}

func TestSendPendingSkipsAcknowledged(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := NewMockSender(ctrl)
	sender.EXPECT().SendEvent(gomock.Any(), "alert.acknowledged", gomock.Any()).Return(nil)

	h := newTestHandler(t, sender)
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, h.Trigger(TypeSpeedAnomaly, "slow", base))
	require.NoError(t, h.Acknowledge(context.Background(), TypeSpeedAnomaly))

	// No SendAlert expectation: delivering an acknowledged alert would
	// fail the controller.
	require.NoError(t, h.SendPending(context.Background()))
}

func TestConfigValidation(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, defaultMaxActive, cfg.MaxActive)
	assert.Equal(t, defaultCooldown, time.Duration(cfg.Cooldown))
	assert.Equal(t, defaultCriticalCooldown, time.Duration(cfg.CriticalCooldown))

	bad := Config{
		Cooldown:         config.Duration(10 * time.Second),
		CriticalCooldown: config.Duration(20 * time.Second),
	}
	assert.ErrorIs(t, bad.Validate(), errCooldownOrder)
}
