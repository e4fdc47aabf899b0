// Package events is the static catalog of outbound notification event types
// and their payload shapes. The catalog drives template validation, example
// payload generation for the template editor, and dispatcher payload checks.
package events

// EventType identifies an outbound notification event.
type EventType string

const (
	EventTypeMaintenanceDue       EventType = "maintenance_due"
	EventTypeMaintenanceCompleted EventType = "maintenance_completed"
	EventTypeMileageUpdated       EventType = "mileage_updated"
	EventTypeMotorcycleAdded      EventType = "motorcycle_added"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Types returns the closed set of known event types.
func Types() []EventType {
	return []EventType{
		EventTypeMaintenanceDue,
		EventTypeMaintenanceCompleted,
		EventTypeMileageUpdated,
		EventTypeMotorcycleAdded,
	}
}

// IsKnown reports whether t is one of the registered event types.
func IsKnown(t EventType) bool {
	_, ok := registry[t]
	return ok
}

// FieldSpec describes one dotted payload field.
type FieldSpec struct {
	Path        string `json:"path"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Example     any    `json:"example"`
}

// Schema is the payload shape of one event type as a flat list of dotted
// field paths.
type Schema struct {
	Event  EventType   `json:"event"`
	Fields []FieldSpec `json:"fields"`
}

var motorcycleFields = []FieldSpec{
	{Path: "motorcycle.id", Type: "string", Description: "Motorcycle identifier", Example: "8a0f05f6-5c7f-4a36-9d50-2f2b04a1a6a4"},
	{Path: "motorcycle.name", Type: "string", Description: "Display name of the motorcycle", Example: "Daily Rider"},
	{Path: "motorcycle.make", Type: "string", Description: "Manufacturer", Example: "Triumph"},
	{Path: "motorcycle.model", Type: "string", Description: "Model", Example: "Street Triple"},
	{Path: "motorcycle.year", Type: "number", Description: "Model year", Example: 2021},
}

var taskFields = []FieldSpec{
	{Path: "task.id", Type: "string", Description: "Maintenance task identifier", Example: "d3f0e6a2-90c1-4c2b-8a4f-7f6f4a7f3f10"},
	{Path: "task.name", Type: "string", Description: "Name of the maintenance task", Example: "Oil Change"},
}

var registry = map[EventType]Schema{
	EventTypeMaintenanceDue: {
		Event: EventTypeMaintenanceDue,
		Fields: concat(motorcycleFields, taskFields, []FieldSpec{
			{Path: "task.nextDueOdometer", Type: "number", Description: "Odometer reading the task became due at", Example: 6000},
			{Path: "task.nextDueDate", Type: "string", Description: "Date the task became due", Example: "2025-06-01T00:00:00Z"},
		}),
	},
	EventTypeMaintenanceCompleted: {
		Event: EventTypeMaintenanceCompleted,
		Fields: concat(motorcycleFields, taskFields, []FieldSpec{
			{Path: "record.id", Type: "string", Description: "Maintenance record identifier", Example: "6f0a4c5e-1db4-4c54-8a15-05a9f1c40b11"},
			{Path: "record.date", Type: "string", Description: "Date the service was performed", Example: "2025-05-20T00:00:00Z"},
			{Path: "record.mileage", Type: "number", Description: "Odometer reading at service time", Example: 5200},
			{Path: "record.cost", Type: "number", Description: "Cost of the service", Example: 89.5},
		}),
	},
	EventTypeMileageUpdated: {
		Event: EventTypeMileageUpdated,
		Fields: concat(motorcycleFields, []FieldSpec{
			{Path: "previousMileage", Type: "number", Description: "Odometer reading before the update", Example: 4500},
			{Path: "newMileage", Type: "number", Description: "Odometer reading after the update", Example: 5000},
		}),
	},
	EventTypeMotorcycleAdded: {
		Event:  EventTypeMotorcycleAdded,
		Fields: motorcycleFields,
	},
}

// fallbackSchema is returned for unknown event types so template tooling
// never hard-fails on a type the catalog does not know yet.
var fallbackSchema = Schema{
	Fields: []FieldSpec{
		{Path: "event", Type: "string", Description: "Event type", Example: "unknown_event"},
		{Path: "timestamp", Type: "string", Description: "Time the event was triggered", Example: "2025-01-01T00:00:00Z"},
	},
}

// GetSchema returns the registered schema for a known event type.
func GetSchema(t EventType) (Schema, bool) {
	s, ok := registry[t]
	return s, ok
}

// SafeSchema returns the registered schema when t is known, otherwise a
// minimal event/timestamp schema. It never fails.
func SafeSchema(t EventType) Schema {
	if s, ok := registry[t]; ok {
		return s
	}
	s := fallbackSchema
	s.Event = t
	return s
}

// HasPath reports whether a dotted field path is part of the event's schema.
// The implicit envelope fields (event, timestamp) always validate.
func HasPath(t EventType, path string) bool {
	if path == "event" || path == "timestamp" {
		return true
	}
	for _, f := range SafeSchema(t).Fields {
		if f.Path == path {
			return true
		}
	}
	return false
}

func concat(groups ...[]FieldSpec) []FieldSpec {
	var out []FieldSpec
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
