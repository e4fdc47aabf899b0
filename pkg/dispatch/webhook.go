package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hawkinslabdev/rideway-sub002/pkg/events"
	"github.com/hawkinslabdev/rideway-sub002/pkg/expressions"
	"github.com/hawkinslabdev/rideway-sub002/pkg/httpclient"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
)

// WebhookTransport delivers events to arbitrary HTTP endpoints.
type WebhookTransport struct {
	client   *httpclient.Client
	template *expressions.Template
}

// NewWebhookTransport creates a webhook transport
func NewWebhookTransport(client *httpclient.Client) *WebhookTransport {
	return &WebhookTransport{
		client:   client,
		template: expressions.NewTemplate(expressions.NewEvaluator(), expressions.RenderModeLive),
	}
}

// Send delivers the payload to the configured URL. When the integration opts
// into a custom payload, the template string is rendered against the event
// payload and sent as the body instead.
func (t *WebhookTransport) Send(ctx context.Context, cfg *models.IntegrationConfig, event events.EventType, payload map[string]any) (*Attempt, *httpclient.Response, error) {
	wc := cfg.Webhook
	if wc == nil {
		return nil, nil, fmt.Errorf("webhook config missing")
	}

	method := wc.Method
	if method == "" {
		method = http.MethodPost
	}

	var body []byte
	if wc.CustomPayload && wc.PayloadTemplate != "" {
		body = []byte(t.template.Render(wc.PayloadTemplate, payload))
	} else {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
	}

	headers := map[string]string{
		"Content-Type": "application/json",
	}
	for key, value := range wc.Headers {
		headers[key] = value
	}
	applyAuth(headers, wc.Authentication)

	attempt := &Attempt{URL: wc.URL, Method: method, Payload: payload}

	resp, err := t.client.Send(ctx, method, wc.URL, body, headers)
	if err != nil {
		return attempt, nil, err
	}
	if !resp.IsSuccess() {
		return attempt, resp, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return attempt, resp, nil
}

func applyAuth(headers map[string]string, auth *models.AuthConfig) {
	if auth == nil {
		return
	}

	switch auth.Type {
	case "basic":
		creds := base64.StdEncoding.EncodeToString([]byte(auth.Username + ":" + auth.Password))
		headers["Authorization"] = "Basic " + creds
	case "bearer":
		headers["Authorization"] = "Bearer " + auth.Token
	case "header":
		if auth.Header != "" {
			headers[auth.Header] = auth.Token
		}
	}
}
