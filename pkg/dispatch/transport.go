// Package dispatch fans out maintenance events to a user's configured
// integrations.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/hawkinslabdev/rideway-sub002/pkg/events"
	"github.com/hawkinslabdev/rideway-sub002/pkg/httpclient"
	"github.com/hawkinslabdev/rideway-sub002/pkg/models"
)

// Attempt describes a single outbound delivery for logging.
type Attempt struct {
	URL     string
	Method  string
	Payload map[string]any
}

// Transport delivers one event payload to one integration. Implementations
// receive the decrypted typed config and must make exactly one bounded
// attempt.
type Transport interface {
	Send(ctx context.Context, cfg *models.IntegrationConfig, event events.EventType, payload map[string]any) (*Attempt, *httpclient.Response, error)
}

// eventTitle builds a short human-readable title for an event.
func eventTitle(event events.EventType, payload map[string]any) string {
	name := lookupString(payload, "motorcycle", "name")

	switch event {
	case events.EventTypeMaintenanceDue:
		if task := lookupString(payload, "task", "name"); task != "" {
			return fmt.Sprintf("Maintenance due: %s", task)
		}
		return "Maintenance due"
	case events.EventTypeMaintenanceCompleted:
		if task := lookupString(payload, "task", "name"); task != "" {
			return fmt.Sprintf("Maintenance completed: %s", task)
		}
		return "Maintenance completed"
	case events.EventTypeMileageUpdated:
		if name != "" {
			return fmt.Sprintf("Mileage updated: %s", name)
		}
		return "Mileage updated"
	case events.EventTypeMotorcycleAdded:
		if name != "" {
			return fmt.Sprintf("Motorcycle added: %s", name)
		}
		return "Motorcycle added"
	default:
		return string(event)
	}
}

// eventMessage builds a human-readable body message for an event.
func eventMessage(event events.EventType, payload map[string]any) string {
	name := lookupString(payload, "motorcycle", "name")
	task := lookupString(payload, "task", "name")

	switch event {
	case events.EventTypeMaintenanceDue:
		if name != "" && task != "" {
			return fmt.Sprintf("%s is due on %s", task, name)
		}
		return "A maintenance task is due"
	case events.EventTypeMaintenanceCompleted:
		if name != "" && task != "" {
			return fmt.Sprintf("%s was completed on %s", task, name)
		}
		return "A maintenance task was completed"
	case events.EventTypeMileageUpdated:
		if name != "" {
			return fmt.Sprintf("Mileage updated for %s", name)
		}
		return "Mileage updated"
	case events.EventTypeMotorcycleAdded:
		if name != "" {
			return fmt.Sprintf("%s was added to the garage", name)
		}
		return "A motorcycle was added"
	default:
		return string(event)
	}
}

// eventTag derives a tag from the event type's first underscore-delimited
// segment, e.g. "maintenance_due" -> "maintenance".
func eventTag(event events.EventType) string {
	segment, _, _ := strings.Cut(string(event), "_")
	return segment
}

func lookupString(payload map[string]any, path ...string) string {
	current := any(payload)
	for _, segment := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = m[segment]
		if !ok {
			return ""
		}
	}
	s, _ := current.(string)
	return s
}
