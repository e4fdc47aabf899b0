package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hawkinslabdev/rideway-sub002/pkg/events"
	"github.com/hawkinslabdev/rideway-sub002/pkg/httpclient"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
)

// NtfyTransport delivers events to an ntfy topic.
type NtfyTransport struct {
	client *httpclient.Client
}

// NewNtfyTransport creates an ntfy transport
func NewNtfyTransport(client *httpclient.Client) *NtfyTransport {
	return &NtfyTransport{client: client}
}

// Send publishes the event to the configured topic using the ntfy JSON
// publish format. The tag list is derived from the event type.
func (t *NtfyTransport) Send(ctx context.Context, cfg *models.IntegrationConfig, event events.EventType, payload map[string]any) (*Attempt, *httpclient.Response, error) {
	nc := cfg.Ntfy
	if nc == nil {
		return nil, nil, fmt.Errorf("ntfy config missing")
	}

	message := map[string]any{
		"topic":   nc.Topic,
		"title":   eventTitle(event, payload),
		"message": eventMessage(event, payload),
		"tags":    []string{eventTag(event)},
	}
	if nc.Priority > 0 {
		message["priority"] = nc.Priority
	}

	body, err := json.Marshal(message)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
	}
	applyAuth(headers, nc.Authorization)

	attempt := &Attempt{URL: nc.Server, Method: "POST", Payload: message}

	resp, err := t.client.Post(ctx, nc.Server, body, headers)
	if err != nil {
		return attempt, nil, err
	}
	if !resp.IsSuccess() {
		return attempt, resp, fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}

	return attempt, resp, nil
}
