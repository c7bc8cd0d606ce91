package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexforge/beltmon/pkg/alerts"
	"github.com/flexforge/beltmon/pkg/faults"
	"github.com/flexforge/beltmon/pkg/models"
)

type fakeProvider struct {
	status models.LineStatus
	alerts []alerts.Alert
	sample models.Sample
	faults []faults.Entry

	acked  []alerts.Type
	ackErr error
}

func (f *fakeProvider) Status() models.LineStatus    { return f.status }
func (f *fakeProvider) ActiveAlerts() []alerts.Alert { return f.alerts }
func (f *fakeProvider) LastSample() models.Sample    { return f.sample }
func (f *fakeProvider) Faults() []faults.Entry       { return f.faults }

func (f *fakeProvider) Acknowledge(_ context.Context, t alerts.Type) error {
	if f.ackErr != nil {
		return f.ackErr
	}

	f.acked = append(f.acked, t)

	return nil
}

func newTestProvider() *fakeProvider {
	return &fakeProvider{
		status: models.LineStatus{
			LineID:          "line-7",
			Running:         true,
			SpeedRPM:        59.2,
			EfficiencyScore: 96.5,
		},
		alerts: []alerts.Alert{
			{Type: alerts.TypeSpeedAnomaly, Level: alerts.Warning, Message: "slow"},
		},
		sample: models.Sample{SpeedRPM: 59.2, Running: true},
	}
}

func TestGetStatus(t *testing.T) {
	provider := newTestProvider()
	server := NewServer(provider)

	req := httptest.NewRequest(http.MethodGet, "/api/status", http.NoBody)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status models.LineStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "line-7", status.LineID)
	assert.InDelta(t, 96.5, status.EfficiencyScore, 0.001)
}

func TestGetAlerts(t *testing.T) {
	server := NewServer(newTestProvider())

	req := httptest.NewRequest(http.MethodGet, "/api/alerts", http.NoBody)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var list []alerts.Alert
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, alerts.TypeSpeedAnomaly, list[0].Type)
}

func TestGetTelemetry(t *testing.T) {
	server := NewServer(newTestProvider())

	req := httptest.NewRequest(http.MethodGet, "/api/telemetry", http.NoBody)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var sample models.Sample
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sample))
	assert.InDelta(t, 59.2, sample.SpeedRPM, 0.001)
}

func TestAcknowledgeAlert(t *testing.T) {
	provider := newTestProvider()
	server := NewServer(provider)

	req := httptest.NewRequest(http.MethodPost, "/api/alerts/speed_anomaly/acknowledge", http.NoBody)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, provider.acked, 1)
	assert.Equal(t, alerts.TypeSpeedAnomaly, provider.acked[0])
}

func TestAcknowledgeUnknownAlert(t *testing.T) {
	provider := newTestProvider()
	provider.ackErr = alerts.ErrUnknownAlert
	server := NewServer(provider)

	req := httptest.NewRequest(http.MethodPost, "/api/alerts/comm_failure/acknowledge", http.NoBody)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAcknowledgeRequiresPost(t *testing.T) {
	server := NewServer(newTestProvider())

	req := httptest.NewRequest(http.MethodGet, "/api/alerts/speed_anomaly/acknowledge", http.NoBody)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLiveFeed(t *testing.T) {
	provider := newTestProvider()
	server := NewServer(provider)
	server.pushInterval = 10 * time.Millisecond

	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/live"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var frame struct {
		Status models.LineStatus `json:"status"`
		Alerts []alerts.Alert    `json:"alerts"`
	}

	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "line-7", frame.Status.LineID)
	require.Len(t, frame.Alerts, 1)
	assert.Equal(t, alerts.TypeSpeedAnomaly, frame.Alerts[0].Type)
}
