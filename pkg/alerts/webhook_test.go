package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSenderPostsAlert(t *testing.T) {
	var got webhookPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWebhookSender(WebhookConfig{
		Enabled: true,
		URL:     server.URL,
		Headers: []Header{{Key: "X-Api-Key", Value: "secret"}},
	}, "line-7")

	err := sender.SendAlert(context.Background(), string(TypeJamDetected), "belt jammed", Critical)
	require.NoError(t, err)

	assert.Equal(t, "alert", got.Kind)
	assert.Equal(t, Critical, got.Level)
	assert.Equal(t, string(TypeJamDetected), got.Title)
	assert.Equal(t, "belt jammed", got.Message)
	assert.Equal(t, "line-7", got.LineID)
	assert.NotEmpty(t, got.Timestamp)
}

func TestWebhookSenderPostsEvent(t *testing.T) {
	var got webhookPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := NewWebhookSender(WebhookConfig{Enabled: true, URL: server.URL}, "line-7")

	err := sender.SendEvent(context.Background(), "alert.acknowledged", map[string]string{"alert_type": "jam_detected"})
	require.NoError(t, err)

	assert.Equal(t, "event", got.Kind)
	assert.Equal(t, "alert.acknowledged", got.Title)
}

func TestWebhookSenderNon2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	sender := NewWebhookSender(WebhookConfig{Enabled: true, URL: server.URL}, "line-7")

	err := sender.SendAlert(context.Background(), string(TypeSpeedAnomaly), "slow", Warning)
	assert.ErrorIs(t, err, errWebhookStatus)
}

func TestWebhookSenderDisabled(t *testing.T) {
	sender := NewWebhookSender(WebhookConfig{Enabled: false, URL: "http://unused"}, "line-7")

	err := sender.SendAlert(context.Background(), string(TypeSpeedAnomaly), "slow", Warning)
	assert.ErrorIs(t, err, errWebhookDisabled)
}

func TestWebhookSenderTemplate(t *testing.T) {
	var raw map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWebhookSender(WebhookConfig{
		Enabled:  true,
		URL:      server.URL,
		Template: `{"text": "{{.alert.Title}}: {{.alert.Message}}"}`,
	}, "line-7")

	err := sender.SendAlert(context.Background(), string(TypeVibrationHigh), "rising", Warning)
	require.NoError(t, err)

	assert.Equal(t, "vibration_high: rising", raw["text"])
}
