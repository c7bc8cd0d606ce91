package sensors

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/flexforge/beltmon/pkg/faults"
	"github.com/flexforge/beltmon/pkg/models"
)

func TestManagerAllSimulatedWhenNoProbes(t *testing.T) {
	rec := faults.NewRecorder(8)
	m := NewManager(SimConfig{Seed: 1}, rec)

	m.Init(context.Background())

	for _, ch := range channels {
		assert.True(t, m.Simulated(ch), "channel %s should be simulated", ch)
	}

	sample := m.Read(context.Background())
	assert.True(t, sample.Running)
	assert.Greater(t, sample.SpeedRPM, 0.0)
	assert.Greater(t, sample.Vibration, 0.0)
	assert.InDelta(t, models.DefaultTempC, sample.Temperature, 5.0)
	assert.False(t, sample.Timestamp.IsZero())

	// Missing hardware is a configuration, not a fault.
	assert.Equal(t, 0, rec.Count())
}

func TestManagerDemotesFailedInit(t *testing.T) {
	ctrl := gomock.NewController(t)
	probe := NewMockProbe(ctrl)

	probe.EXPECT().Channel().Return(ChannelVibration).AnyTimes()
	probe.EXPECT().Init(gomock.Any()).Return(errors.New("i2c bus unavailable"))

	rec := faults.NewRecorder(8)
	m := NewManager(SimConfig{Seed: 1}, rec, probe)

	m.Init(context.Background())

	assert.True(t, m.Simulated(ChannelVibration))

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, faults.KindSensorInitFailed, last.Kind)
	assert.Equal(t, faults.SeverityCritical, last.Severity)

	// Reads come from the simulator, no further faults.
	sample := m.Read(context.Background())
	assert.Greater(t, sample.Vibration, 0.0)
	assert.Equal(t, 1, rec.Count())
}

func TestManagerReadFailureFallsBackForOneTick(t *testing.T) {
	ctrl := gomock.NewController(t)
	probe := NewMockProbe(ctrl)

	probe.EXPECT().Channel().Return(ChannelSpeed).AnyTimes()
	probe.EXPECT().Init(gomock.Any()).Return(nil)

	rec := faults.NewRecorder(8)
	m := NewManager(SimConfig{Seed: 1}, rec, probe)
	m.Init(context.Background())

	require.False(t, m.Simulated(ChannelSpeed))

	// First read fails, simulator covers the tick.
	probe.EXPECT().Read(gomock.Any(), gomock.Any()).Return(errors.New("timeout"))

	sample := m.Read(context.Background())
	assert.Greater(t, sample.SpeedRPM, 0.0)
	assert.Contains(t, m.LastError(), "speed read failed")

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, faults.KindSensorReadTimeout, last.Kind)

	// The probe keeps its slot: next read goes to it again.
	probe.EXPECT().Read(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, s *models.Sample) error {
			s.Running = true
			s.SpeedRPM = 58
			s.PartsPerMin = 11
			return nil
		})

	sample = m.Read(context.Background())
	assert.InDelta(t, 58.0, sample.SpeedRPM, 0.001)
	assert.Empty(t, m.LastError())
}

func TestManagerSanitizesNonFiniteReads(t *testing.T) {
	ctrl := gomock.NewController(t)
	probe := NewMockProbe(ctrl)

	probe.EXPECT().Channel().Return(ChannelVibration).AnyTimes()
	probe.EXPECT().Init(gomock.Any()).Return(nil)
	probe.EXPECT().Read(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, s *models.Sample) error {
			s.Vibration = math.NaN()
			return nil
		})

	rec := faults.NewRecorder(8)
	m := NewManager(SimConfig{Seed: 1}, rec, probe)
	m.Init(context.Background())

	sample := m.Read(context.Background())
	assert.Equal(t, models.DefaultVibrationG, sample.Vibration)

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, faults.KindSensorDataInvalid, last.Kind)
}

func TestSimulatedEnvironmentStaysBounded(t *testing.T) {
	probe := NewSimulated(ChannelEnvironment, SimConfig{Seed: 42})

	sample := models.Sample{}
	for i := 0; i < 10000; i++ {
		require.NoError(t, probe.Read(context.Background(), &sample))
	}

	assert.InDelta(t, models.DefaultTempC, sample.Temperature, 15.0)
	assert.InDelta(t, 45.0, sample.Humidity, 40.0)
	assert.InDelta(t, models.DefaultPressureHPa, sample.Pressure, 30.0)
}

func TestSimulatedSpeedNearNominal(t *testing.T) {
	probe := NewSimulated(ChannelSpeed, SimConfig{NominalSpeedRPM: 60, Seed: 7})

	sample := models.Sample{}
	for i := 0; i < 100; i++ {
		require.NoError(t, probe.Read(context.Background(), &sample))
		assert.InDelta(t, 60.0, sample.SpeedRPM, 60*0.02+0.001)
		assert.GreaterOrEqual(t, sample.PartsPerMin, 10)
	}
}
