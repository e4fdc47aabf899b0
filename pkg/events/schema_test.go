package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypesIsClosedSet(t *testing.T) {
	types := Types()

	require.Len(t, types, 4)
	assert.Contains(t, types, EventTypeMaintenanceDue)
	assert.Contains(t, types, EventTypeMaintenanceCompleted)
	assert.Contains(t, types, EventTypeMileageUpdated)
	assert.Contains(t, types, EventTypeMotorcycleAdded)

	for _, eventType := range types {
		assert.True(t, IsKnown(eventType))
	}
}

func TestIsKnownRejectsUnregistered(t *testing.T) {
	assert.False(t, IsKnown("oil_spill"))
	assert.False(t, IsKnown(""))
}

func TestGetSchema(t *testing.T) {
	schema, ok := GetSchema(EventTypeMaintenanceDue)
	require.True(t, ok)
	assert.Equal(t, EventTypeMaintenanceDue, schema.Event)
	assert.NotEmpty(t, schema.Fields)

	_, ok = GetSchema("oil_spill")
	assert.False(t, ok)
}

func TestSafeSchemaFallback(t *testing.T) {
	schema := SafeSchema("oil_spill")

	assert.Equal(t, EventType("oil_spill"), schema.Event)
	require.Len(t, schema.Fields, 2)
	assert.Equal(t, "event", schema.Fields[0].Path)
	assert.Equal(t, "timestamp", schema.Fields[1].Path)
}

func TestHasPath(t *testing.T) {
	assert.True(t, HasPath(EventTypeMaintenanceDue, "motorcycle.name"))
	assert.True(t, HasPath(EventTypeMaintenanceDue, "task.nextDueOdometer"))
	assert.False(t, HasPath(EventTypeMaintenanceDue, "record.cost"))

	assert.True(t, HasPath(EventTypeMaintenanceCompleted, "record.cost"))
	assert.True(t, HasPath(EventTypeMileageUpdated, "previousMileage"))

	// Envelope fields validate for every type, known or not.
	assert.True(t, HasPath(EventTypeMotorcycleAdded, "event"))
	assert.True(t, HasPath("oil_spill", "timestamp"))
	assert.False(t, HasPath("oil_spill", "motorcycle.name"))
}

func TestSchemasShareMotorcycleFields(t *testing.T) {
	for _, eventType := range Types() {
		assert.True(t, HasPath(eventType, "motorcycle.id"), "event %s", eventType)
		assert.True(t, HasPath(eventType, "motorcycle.name"), "event %s", eventType)
	}
}
