package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hawkinslabdev/rideway-sub002/pkg/database"
	"github.com/hawkinslabdev/rideway-sub002/pkg/events"
)

// IntegrationType identifies the outbound transport of an integration.
type IntegrationType string

const (
	IntegrationTypeWebhook       IntegrationType = "webhook"
	IntegrationTypeHomeAssistant IntegrationType = "homeassistant"
	IntegrationTypeNtfy          IntegrationType = "ntfy"
)

// Valid reports whether t is a known integration type.
func (t IntegrationType) Valid() bool {
	switch t {
	case IntegrationTypeWebhook, IntegrationTypeHomeAssistant, IntegrationTypeNtfy:
		return true
	}
	return false
}

// Integration is a user-configured outbound notification target. Config holds
// the AES-GCM encrypted, JSON-serialized type-specific configuration; it is
// decrypted only at dispatch time.
type Integration struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Type      IntegrationType `db:"type" json:"type"`
	Name      string          `db:"name" json:"name"`
	Active    bool            `db:"active" json:"active"`
	Config    []byte          `db:"config" json:"-"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// TableName returns the database table name
func (Integration) TableName() string {
	return "integrations"
}

// IntegrationEventSubscription enables one event type on an integration,
// optionally with template data merged over the event payload.
type IntegrationEventSubscription struct {
	ID            uuid.UUID                      `db:"id" json:"id"`
	UserID        uuid.UUID                      `db:"user_id" json:"user_id"`
	IntegrationID uuid.UUID                      `db:"integration_id" json:"integration_id"`
	EventType     events.EventType               `db:"event_type" json:"event_type"`
	Enabled       bool                           `db:"enabled" json:"enabled"`
	TemplateData  database.JSONB[map[string]any] `db:"template_data" json:"template_data,omitempty"`
	CreatedAt     time.Time                      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time                      `db:"updated_at" json:"updated_at"`
}

// TableName returns the database table name
func (IntegrationEventSubscription) TableName() string {
	return "integration_event_subscriptions"
}

// IntegrationEventLog is one append-only dispatch attempt record. Request
// data is sanitized before it is written; it is never read back by the
// dispatch pipeline.
type IntegrationEventLog struct {
	ID            uuid.UUID                      `db:"id" json:"id"`
	UserID        uuid.UUID                      `db:"user_id" json:"user_id"`
	IntegrationID uuid.UUID                      `db:"integration_id" json:"integration_id"`
	EventType     events.EventType               `db:"event_type" json:"event_type"`
	Status        string                         `db:"status" json:"status"`
	Request       database.JSONB[map[string]any] `db:"request" json:"request"`
	Response      database.JSONB[map[string]any] `db:"response" json:"response,omitempty"`
	Error         *string                        `db:"error" json:"error,omitempty"`
	DurationMS    int64                          `db:"duration_ms" json:"duration_ms"`
	CreatedAt     time.Time                      `db:"created_at" json:"created_at"`
}

// TableName returns the database table name
func (IntegrationEventLog) TableName() string {
	return "integration_event_logs"
}

const (
	EventLogStatusSuccess = "success"
	EventLogStatusFailed  = "failed"
)

// AuthConfig is the shared authentication block of webhook and ntfy configs.
type AuthConfig struct {
	Type     string `json:"type"` // none, basic, bearer, header
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
	Header   string `json:"header,omitempty"`
}

// WebhookConfig is the decrypted configuration of a webhook integration.
type WebhookConfig struct {
	URL             string            `json:"url"`
	Method          string            `json:"method,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	Authentication  *AuthConfig       `json:"authentication,omitempty"`
	CustomPayload   bool              `json:"custom_payload,omitempty"`
	PayloadTemplate string            `json:"payload_template,omitempty"`
}

// HomeAssistantConfig is the decrypted configuration of a Home Assistant
// integration.
type HomeAssistantConfig struct {
	BaseURL        string `json:"base_url"`
	LongLivedToken string `json:"long_lived_token"`
	// NotifyService is the notify target under /api/services/notify,
	// e.g. "mobile_app_pixel". Defaults to "mobile_app".
	NotifyService string `json:"notify_service,omitempty"`
	// EntityID optionally targets the notify call at one entity.
	EntityID string `json:"entity_id,omitempty"`
}

// NtfyConfig is the decrypted configuration of an ntfy integration.
type NtfyConfig struct {
	Topic         string      `json:"topic"`
	Server        string      `json:"server,omitempty"`
	Priority      int         `json:"priority,omitempty"`
	Authorization *AuthConfig `json:"authorization,omitempty"`
}

// IntegrationConfig is the closed tagged variant of per-type configurations.
// Exactly one member is non-nil, matching the integration's type.
type IntegrationConfig struct {
	Webhook       *WebhookConfig
	HomeAssistant *HomeAssistantConfig
	Ntfy          *NtfyConfig
}

// DecodeIntegrationConfig decodes a plaintext JSON config blob into the typed
// variant for the given integration type. It is called once at the dispatch
// boundary; untyped config data is never passed further down.
func DecodeIntegrationConfig(t IntegrationType, plaintext []byte) (*IntegrationConfig, error) {
	switch t {
	case IntegrationTypeWebhook:
		var cfg WebhookConfig
		if err := json.Unmarshal(plaintext, &cfg); err != nil {
			return nil, fmt.Errorf("invalid webhook config: %w", err)
		}
		if cfg.URL == "" {
			return nil, fmt.Errorf("webhook config is missing url")
		}
		return &IntegrationConfig{Webhook: &cfg}, nil

	case IntegrationTypeHomeAssistant:
		var cfg HomeAssistantConfig
		if err := json.Unmarshal(plaintext, &cfg); err != nil {
			return nil, fmt.Errorf("invalid homeassistant config: %w", err)
		}
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("homeassistant config is missing base_url")
		}
		if cfg.NotifyService == "" {
			cfg.NotifyService = "mobile_app"
		}
		return &IntegrationConfig{HomeAssistant: &cfg}, nil

	case IntegrationTypeNtfy:
		var cfg NtfyConfig
		if err := json.Unmarshal(plaintext, &cfg); err != nil {
			return nil, fmt.Errorf("invalid ntfy config: %w", err)
		}
		if cfg.Topic == "" {
			return nil, fmt.Errorf("ntfy config is missing topic")
		}
		if cfg.Server == "" {
			cfg.Server = "https://ntfy.sh"
		}
		return &IntegrationConfig{Ntfy: &cfg}, nil

	default:
		return nil, fmt.Errorf("unknown integration type %q", t)
	}
}
