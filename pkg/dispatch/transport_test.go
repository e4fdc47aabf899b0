package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hawkinslabdev/rideway-sub002/pkg/events"
	"github.com/hawkinslabdev/rideway-sub002/pkg/httpclient"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
)

func testLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func testHTTPClient() *httpclient.Client {
	return httpclient.NewClient(httpclient.DefaultConfig(), testLogger())
}

type capturedRequest struct {
	method  string
	path    string
	headers http.Header
	body    []byte
}

func captureServer(t *testing.T, status int) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.headers = r.Header.Clone()
		captured.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func duePayloadFixture() map[string]any {
	return map[string]any{
		"event":     "maintenance_due",
		"timestamp": "2026-08-31T09:00:00Z",
		"motorcycle": map[string]any{
			"name": "SV650",
		},
		"task": map[string]any{
			"name": "Oil Change",
		},
	}
}

func TestWebhookTransportSendsJSONPayload(t *testing.T) {
	server, captured := captureServer(t, http.StatusOK)

	transport := NewWebhookTransport(testHTTPClient())
	cfg := &models.IntegrationConfig{Webhook: &models.WebhookConfig{URL: server.URL}}

	attempt, resp, err := transport.Send(context.Background(), cfg, events.EventTypeMaintenanceDue, duePayloadFixture())
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.IsSuccess())

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "application/json", captured.headers.Get("Content-Type"))
	assert.Equal(t, server.URL, attempt.URL)

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured.body, &body))
	assert.Equal(t, "maintenance_due", body["event"])
}

func TestWebhookTransportCustomPayloadTemplate(t *testing.T) {
	server, captured := captureServer(t, http.StatusOK)

	transport := NewWebhookTransport(testHTTPClient())
	cfg := &models.IntegrationConfig{Webhook: &models.WebhookConfig{
		URL:             server.URL,
		CustomPayload:   true,
		PayloadTemplate: `{"text": "{{ task.name }} due on {{ motorcycle.name }}"}`,
	}}

	_, _, err := transport.Send(context.Background(), cfg, events.EventTypeMaintenanceDue, duePayloadFixture())
	require.NoError(t, err)

	assert.JSONEq(t, `{"text": "Oil Change due on SV650"}`, string(captured.body))
}

func TestWebhookTransportAuth(t *testing.T) {
	tests := []struct {
		name   string
		auth   *models.AuthConfig
		header string
		value  string
	}{
		{
			name:   "basic",
			auth:   &models.AuthConfig{Type: "basic", Username: "rider", Password: "pass"},
			header: "Authorization",
			value:  "Basic cmlkZXI6cGFzcw==",
		},
		{
			name:   "bearer",
			auth:   &models.AuthConfig{Type: "bearer", Token: "tok123"},
			header: "Authorization",
			value:  "Bearer tok123",
		},
		{
			name:   "custom header",
			auth:   &models.AuthConfig{Type: "header", Header: "X-Api-Key", Token: "key123"},
			header: "X-Api-Key",
			value:  "key123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, captured := captureServer(t, http.StatusOK)

			transport := NewWebhookTransport(testHTTPClient())
			cfg := &models.IntegrationConfig{Webhook: &models.WebhookConfig{
				URL:            server.URL,
				Authentication: tt.auth,
			}}

			_, _, err := transport.Send(context.Background(), cfg, events.EventTypeMaintenanceDue, duePayloadFixture())
			require.NoError(t, err)
			assert.Equal(t, tt.value, captured.headers.Get(tt.header))
		})
	}
}

func TestWebhookTransportNonSuccessStatusIsError(t *testing.T) {
	server, _ := captureServer(t, http.StatusBadGateway)

	transport := NewWebhookTransport(testHTTPClient())
	cfg := &models.IntegrationConfig{Webhook: &models.WebhookConfig{URL: server.URL}}

	attempt, resp, err := transport.Send(context.Background(), cfg, events.EventTypeMaintenanceDue, duePayloadFixture())
	require.Error(t, err)
	require.NotNil(t, attempt)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHomeAssistantTransport(t *testing.T) {
	server, captured := captureServer(t, http.StatusOK)

	transport := NewHomeAssistantTransport(testHTTPClient())
	cfg := &models.IntegrationConfig{HomeAssistant: &models.HomeAssistantConfig{
		BaseURL:        server.URL + "/",
		LongLivedToken: "ha-token",
		NotifyService:  "mobile_app_pixel",
		EntityID:       "mobile_app_sv650",
	}}

	_, _, err := transport.Send(context.Background(), cfg, events.EventTypeMaintenanceDue, duePayloadFixture())
	require.NoError(t, err)

	assert.Equal(t, "/api/services/notify/mobile_app_pixel", captured.path)
	assert.Equal(t, "Bearer ha-token", captured.headers.Get("Authorization"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured.body, &body))
	assert.Equal(t, "Maintenance due: Oil Change", body["title"])
	assert.Equal(t, "Oil Change is due on SV650", body["message"])
	assert.Equal(t, "mobile_app_sv650", body["target"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "maintenance_due", data["event"])
}

func TestNtfyTransport(t *testing.T) {
	server, captured := captureServer(t, http.StatusOK)

	transport := NewNtfyTransport(testHTTPClient())
	cfg := &models.IntegrationConfig{Ntfy: &models.NtfyConfig{
		Topic:    "garage",
		Server:   server.URL,
		Priority: 4,
		Authorization: &models.AuthConfig{
			Type:  "bearer",
			Token: "ntfy-token",
		},
	}}

	_, _, err := transport.Send(context.Background(), cfg, events.EventTypeMaintenanceDue, duePayloadFixture())
	require.NoError(t, err)

	assert.Equal(t, "Bearer ntfy-token", captured.headers.Get("Authorization"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured.body, &body))
	assert.Equal(t, "garage", body["topic"])
	assert.Equal(t, "Maintenance due: Oil Change", body["title"])
	assert.Equal(t, float64(4), body["priority"])

	tags, ok := body["tags"].([]any)
	require.True(t, ok)
	require.Len(t, tags, 1)
	assert.Equal(t, "maintenance", tags[0])
}

func TestEventTitlesAndMessages(t *testing.T) {
	payload := duePayloadFixture()

	assert.Equal(t, "Maintenance due: Oil Change", eventTitle(events.EventTypeMaintenanceDue, payload))
	assert.Equal(t, "Maintenance completed: Oil Change", eventTitle(events.EventTypeMaintenanceCompleted, payload))
	assert.Equal(t, "Mileage updated: SV650", eventTitle(events.EventTypeMileageUpdated, payload))
	assert.Equal(t, "Motorcycle added: SV650", eventTitle(events.EventTypeMotorcycleAdded, payload))

	// Missing names fall back to generic wording.
	assert.Equal(t, "Maintenance due", eventTitle(events.EventTypeMaintenanceDue, map[string]any{}))
	assert.Equal(t, "A maintenance task is due", eventMessage(events.EventTypeMaintenanceDue, map[string]any{}))
}

func TestEventTag(t *testing.T) {
	assert.Equal(t, "maintenance", eventTag(events.EventTypeMaintenanceDue))
	assert.Equal(t, "mileage", eventTag(events.EventTypeMileageUpdated))
	assert.Equal(t, "motorcycle", eventTag(events.EventTypeMotorcycleAdded))
}
