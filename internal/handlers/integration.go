package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hawkinslabdev/rideway-sub002/pkg/cryptox"
	"github.com/hawkinslabdev/rideway-sub002/pkg/database"
	"github.com/hawkinslabdev/rideway-sub002/pkg/dispatch"
	"github.com/hawkinslabdev/rideway-sub002/pkg/events"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
	"github.com/hawkinslabdev/rideway-sub002/pkg/repositories"
)

// IntegrationHandler handles integration API requests
type IntegrationHandler struct {
	repo       *repositories.IntegrationRepository
	logs       *repositories.EventLogRepository
	dispatcher *dispatch.Dispatcher
	cipher     *cryptox.Cipher
}

// NewIntegrationHandler creates a new integration handler
func NewIntegrationHandler(
	repo *repositories.IntegrationRepository,
	logs *repositories.EventLogRepository,
	dispatcher *dispatch.Dispatcher,
	cipher *cryptox.Cipher,
) *IntegrationHandler {
	return &IntegrationHandler{
		repo:       repo,
		logs:       logs,
		dispatcher: dispatcher,
		cipher:     cipher,
	}
}

// CreateIntegrationRequest is the request body for creating an integration
type CreateIntegrationRequest struct {
	Type   string         `json:"type" validate:"required,oneof=webhook homeassistant ntfy"`
	Name   string         `json:"name" validate:"required"`
	Active *bool          `json:"active,omitempty"`
	Config map[string]any `json:"config" validate:"required"`
}

// UpdateIntegrationRequest is the request body for updating an integration.
// A nil config keeps the stored one.
type UpdateIntegrationRequest struct {
	Name   *string        `json:"name,omitempty"`
	Active *bool          `json:"active,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// SubscriptionRequest enables or disables one event type on an integration
type SubscriptionRequest struct {
	EventType    string         `json:"event_type" validate:"required"`
	Enabled      bool           `json:"enabled"`
	TemplateData map[string]any `json:"template_data,omitempty"`
}

// TestIntegrationRequest selects the event type to send a test payload for
type TestIntegrationRequest struct {
	EventType string `json:"event_type,omitempty"`
}

// RegisterRoutes registers the integration routes
func (h *IntegrationHandler) RegisterRoutes(g *echo.Group) {
	integrations := g.Group("/integrations")
	integrations.POST("", h.Create)
	integrations.GET("", h.List)
	integrations.GET("/:id", h.Get)
	integrations.PUT("/:id", h.Update)
	integrations.DELETE("/:id", h.Delete)
	integrations.GET("/:id/subscriptions", h.ListSubscriptions)
	integrations.PUT("/:id/subscriptions", h.UpsertSubscription)
	integrations.POST("/:id/test", h.Test)
	integrations.GET("/:id/logs", h.ListLogs)
	integrations.GET("/logs", h.ListAllLogs)
}

// encryptConfig validates and encrypts a plaintext config map for storage.
func (h *IntegrationHandler) encryptConfig(integrationType models.IntegrationType, config map[string]any) ([]byte, error) {
	plaintext, err := json.Marshal(config)
	if err != nil {
		return nil, BadRequest("invalid config")
	}

	if _, err := models.DecodeIntegrationConfig(integrationType, plaintext); err != nil {
		return nil, BadRequest(err.Error())
	}

	return h.cipher.Encrypt(plaintext)
}

// Create handles POST /integrations
func (h *IntegrationHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := BindRequest[CreateIntegrationRequest](c)
	if err != nil {
		return err
	}

	integrationType := models.IntegrationType(req.Type)
	encrypted, err := h.encryptConfig(integrationType, req.Config)
	if err != nil {
		return err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	integration := &models.Integration{
		Type:   integrationType,
		Name:   req.Name,
		Active: active,
		Config: encrypted,
	}

	if err := h.repo.Create(ctx, integration); err != nil {
		return err
	}

	return CreatedResponse(c, integration)
}

// List handles GET /integrations
func (h *IntegrationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	integrations, err := h.repo.List(ctx)
	if err != nil {
		return err
	}

	return SuccessResponse(c, integrations)
}

// Get handles GET /integrations/:id
func (h *IntegrationHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	integration, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, integration)
}

// Update handles PUT /integrations/:id
func (h *IntegrationHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	req, err := BindRequest[UpdateIntegrationRequest](c)
	if err != nil {
		return err
	}

	integration, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if req.Name != nil {
		integration.Name = *req.Name
	}
	if req.Active != nil {
		integration.Active = *req.Active
	}
	if req.Config != nil {
		encrypted, err := h.encryptConfig(integration.Type, req.Config)
		if err != nil {
			return err
		}
		integration.Config = encrypted
	} else {
		integration.Config = nil
	}

	if err := h.repo.Update(ctx, integration); err != nil {
		return err
	}

	return SuccessResponse(c, integration)
}

// Delete handles DELETE /integrations/:id
func (h *IntegrationHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		return err
	}

	return NoContentResponse(c)
}

// ListSubscriptions handles GET /integrations/:id/subscriptions
func (h *IntegrationHandler) ListSubscriptions(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	if _, err := h.repo.GetByID(ctx, id); err != nil {
		return err
	}

	subscriptions, err := h.repo.ListSubscriptions(ctx, id)
	if err != nil {
		return err
	}

	return SuccessResponse(c, subscriptions)
}

// UpsertSubscription handles PUT /integrations/:id/subscriptions
func (h *IntegrationHandler) UpsertSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	req, err := BindRequest[SubscriptionRequest](c)
	if err != nil {
		return err
	}

	eventType := events.EventType(req.EventType)
	if !events.IsKnown(eventType) {
		return BadRequest("unknown event type")
	}

	if _, err := h.repo.GetByID(ctx, id); err != nil {
		return err
	}

	subscription := &models.IntegrationEventSubscription{
		IntegrationID: id,
		EventType:     eventType,
		Enabled:       req.Enabled,
		TemplateData:  database.NewJSONB(req.TemplateData),
	}

	if err := h.repo.UpsertSubscription(ctx, subscription); err != nil {
		return err
	}

	return SuccessResponse(c, subscription)
}

// Test handles POST /integrations/:id/test. Sends a schema example payload
// through the integration's real transport.
func (h *IntegrationHandler) Test(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	req, err := BindRequest[TestIntegrationRequest](c)
	if err != nil {
		return err
	}

	eventType := events.EventTypeMaintenanceDue
	if req.EventType != "" {
		eventType = events.EventType(req.EventType)
		if !events.IsKnown(eventType) {
			return BadRequest("unknown event type")
		}
	}

	integration, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	result := h.dispatcher.Test(ctx, userID, integration, eventType, events.ExamplePayload(eventType))

	return SuccessResponse(c, result)
}

// ListLogs handles GET /integrations/:id/logs
func (h *IntegrationHandler) ListLogs(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := ParseUUID(c, "id")
	if err != nil {
		return err
	}

	if _, err := h.repo.GetByID(ctx, id); err != nil {
		return err
	}

	logs, err := h.logs.List(ctx, &id, parseLimit(c))
	if err != nil {
		return err
	}

	return SuccessResponse(c, logs)
}

// ListAllLogs handles GET /integrations/logs
func (h *IntegrationHandler) ListAllLogs(c echo.Context) error {
	ctx := c.Request().Context()

	logs, err := h.logs.List(ctx, nil, parseLimit(c))
	if err != nil {
		return err
	}

	return SuccessResponse(c, logs)
}

func parseLimit(c echo.Context) int {
	limitStr := c.QueryParam("limit")
	if limitStr == "" {
		return 0
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0
	}
	return limit
}
