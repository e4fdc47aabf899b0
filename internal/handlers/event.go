package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/hawkinslabdev/rideway-sub002/pkg/events"
	"github.com/hawkinslabdev/rideway-sub002/pkg/expressions"
)

// EventHandler serves the event schema catalog used by template editors.
type EventHandler struct {
	preview *expressions.Template
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{
		preview: expressions.NewTemplate(expressions.NewEvaluator(), expressions.RenderModePreview),
	}
}

// PreviewTemplateRequest renders a payload template against an event's
// example payload
type PreviewTemplateRequest struct {
	EventType string `json:"event_type" validate:"required"`
	Template  string `json:"template" validate:"required"`
}

// PreviewTemplateResponse is the rendered preview
type PreviewTemplateResponse struct {
	Rendered string `json:"rendered"`
}

// RegisterRoutes registers the event catalog routes
func (h *EventHandler) RegisterRoutes(g *echo.Group) {
	eventsGroup := g.Group("/events")
	eventsGroup.GET("/types", h.ListTypes)
	eventsGroup.GET("/:type/schema", h.GetSchema)
	eventsGroup.GET("/:type/example", h.GetExample)
	eventsGroup.POST("/preview", h.PreviewTemplate)
}

// ListTypes handles GET /events/types
func (h *EventHandler) ListTypes(c echo.Context) error {
	return SuccessResponse(c, map[string]any{
		"version": events.SchemaVersion,
		"types":   events.Types(),
	})
}

// GetSchema handles GET /events/:type/schema. Unknown types fall back to a
// minimal schema rather than erroring, so template tooling keeps working.
func (h *EventHandler) GetSchema(c echo.Context) error {
	eventType := events.EventType(c.Param("type"))
	return SuccessResponse(c, events.SafeSchema(eventType))
}

// GetExample handles GET /events/:type/example
func (h *EventHandler) GetExample(c echo.Context) error {
	eventType := events.EventType(c.Param("type"))
	return SuccessResponse(c, events.ExamplePayload(eventType))
}

// PreviewTemplate handles POST /events/preview. Unresolvable placeholders
// render as a visible marker so template typos are easy to spot.
func (h *EventHandler) PreviewTemplate(c echo.Context) error {
	req, err := BindRequest[PreviewTemplateRequest](c)
	if err != nil {
		return err
	}

	eventType := events.EventType(req.EventType)
	example := events.ExamplePayload(eventType)

	return SuccessResponse(c, PreviewTemplateResponse{
		Rendered: h.preview.Render(req.Template, example),
	})
}
