package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hawkinslabdev/rideway-sub002/pkg/events"
	"github.com/hawkinslabdev/rideway-sub002/pkg/httpclient"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
)

// HomeAssistantTransport delivers events as Home Assistant notify service
// calls.
type HomeAssistantTransport struct {
	client *httpclient.Client
}

// NewHomeAssistantTransport creates a Home Assistant transport
func NewHomeAssistantTransport(client *httpclient.Client) *HomeAssistantTransport {
	return &HomeAssistantTransport{client: client}
}

// Send wraps the event as a notify service call and posts it to the Home
// Assistant instance with the configured long-lived token.
func (t *HomeAssistantTransport) Send(ctx context.Context, cfg *models.IntegrationConfig, event events.EventType, payload map[string]any) (*Attempt, *httpclient.Response, error) {
	hc := cfg.HomeAssistant
	if hc == nil {
		return nil, nil, fmt.Errorf("homeassistant config missing")
	}

	url := fmt.Sprintf("%s/api/services/notify/%s",
		strings.TrimSuffix(hc.BaseURL, "/"), hc.NotifyService)

	serviceCall := map[string]any{
		"title":   eventTitle(event, payload),
		"message": eventMessage(event, payload),
		"data":    payload,
	}
	if hc.EntityID != "" {
		serviceCall["target"] = hc.EntityID
	}

	body, err := json.Marshal(serviceCall)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal service call: %w", err)
	}

	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + hc.LongLivedToken,
	}

	attempt := &Attempt{URL: url, Method: "POST", Payload: serviceCall}

	resp, err := t.client.Post(ctx, url, body, headers)
	if err != nil {
		return attempt, nil, err
	}
	if !resp.IsSuccess() {
		return attempt, resp, fmt.Errorf("home assistant returned status %d", resp.StatusCode)
	}

	return attempt, resp, nil
}
