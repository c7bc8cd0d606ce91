// Package alerts pkg/alerts/webhook.go
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"text/template"
	"time"
)

var (
	errWebhookDisabled   = fmt.Errorf("webhook sender is disabled")
	errInvalidJSON       = fmt.Errorf("invalid JSON generated")
	errWebhookStatus     = fmt.Errorf("webhook returned non-200 status")
	errTemplateParse     = fmt.Errorf("template parsing failed")
	errTemplateExecution = fmt.Errorf("template execution failed")
)

// WebhookConfig configures one webhook sink. Suppression is the handler's
// job, so there is no cooldown here.
type WebhookConfig struct {
	Enabled  bool     `json:"enabled"`
	URL      string   `json:"url"`
	Headers  []Header `json:"headers,omitempty"`  // Custom headers
	Template string   `json:"template,omitempty"` // Optional JSON template
}

type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// webhookPayload is the default body posted for both alerts and events.
type webhookPayload struct {
	Kind      string `json:"kind"` // "alert" or "event"
	Level     Level  `json:"level,omitempty"`
	Title     string `json:"title"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
	LineID    string `json:"line_id"`
	Payload   any    `json:"payload,omitempty"`
}

// WebhookSender posts alerts and events to a configured HTTP endpoint.
type WebhookSender struct {
	config     WebhookConfig
	lineID     string
	client     *http.Client
	bufferPool *sync.Pool
}

func NewWebhookSender(config WebhookConfig, lineID string) *WebhookSender {
	return &WebhookSender{
		config: config,
		lineID: lineID,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
	}
}

func (w *WebhookSender) IsEnabled() bool {
	return w.config.Enabled
}

// SendAlert implements Sender.
func (w *WebhookSender) SendAlert(ctx context.Context, alertType, message string, level Level) error {
	return w.post(ctx, &webhookPayload{
		Kind:      "alert",
		Level:     level,
		Title:     alertType,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		LineID:    w.lineID,
	})
}

// SendEvent implements Sender.
func (w *WebhookSender) SendEvent(ctx context.Context, event string, payload any) error {
	return w.post(ctx, &webhookPayload{
		Kind:      "event",
		Title:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		LineID:    w.lineID,
		Payload:   payload,
	})
}

func (w *WebhookSender) post(ctx context.Context, body *webhookPayload) error {
	if !w.IsEnabled() {
		log.Printf("Webhook sender disabled, skipping: %s", body.Title)
		return errWebhookDisabled
	}

	payload, err := w.preparePayload(body)
	if err != nil {
		return fmt.Errorf("failed to prepare payload: %w", err)
	}

	return w.sendRequest(ctx, payload)
}

func (w *WebhookSender) getTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"json": func(v interface{}) (string, error) {
			buf := w.bufferPool.Get().(*bytes.Buffer)
			buf.Reset()
			defer w.bufferPool.Put(buf)

			enc := json.NewEncoder(buf)
			if err := enc.Encode(v); err != nil {
				return "", fmt.Errorf("JSON marshaling failed: %w", err)
			}

			return buf.String(), nil
		},
	}
}

func (w *WebhookSender) preparePayload(body *webhookPayload) ([]byte, error) {
	if w.config.Template == "" {
		buf := w.bufferPool.Get().(*bytes.Buffer)
		buf.Reset()
		defer w.bufferPool.Put(buf)

		enc := json.NewEncoder(buf)
		if err := enc.Encode(body); err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}

		return append([]byte(nil), buf.Bytes()...), nil
	}

	return w.executeTemplate(body)
}

func (w *WebhookSender) executeTemplate(body *webhookPayload) ([]byte, error) {
	tmpl, err := template.New("webhook").
		Funcs(w.getTemplateFuncs()).
		Parse(w.config.Template)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errTemplateParse, err)
	}

	buf := w.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer w.bufferPool.Put(buf)

	if err := tmpl.Execute(buf, map[string]interface{}{
		"alert": body,
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", errTemplateExecution, err)
	}

	if !json.Valid(buf.Bytes()) {
		return nil, errInvalidJSON
	}

	return append([]byte(nil), buf.Bytes()...), nil
}

func (w *WebhookSender) sendRequest(ctx context.Context, payload []byte) error {
	buf := w.bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer w.bufferPool.Put(buf)

	buf.Write(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	w.setHeaders(req)

	resp, err := w.client.Do(req) //nolint:bodyclose // Response body is closed later
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBuf := w.bufferPool.Get().(*bytes.Buffer)
		errBuf.Reset()
		defer w.bufferPool.Put(errBuf)

		_, _ = io.Copy(errBuf, resp.Body)

		return fmt.Errorf("%w: status=%d body=%s", errWebhookStatus, resp.StatusCode, errBuf.String())
	}

	return nil
}

func (w *WebhookSender) setHeaders(req *http.Request) {
	hasContentType := false

	for _, header := range w.config.Headers {
		if strings.EqualFold(header.Key, "content-type") {
			hasContentType = true
		}

		req.Header.Set(header.Key, header.Value)
	}

	if !hasContentType {
		req.Header.Set("Content-Type", "application/json")
	}
}
