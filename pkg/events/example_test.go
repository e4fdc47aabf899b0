package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExamplePayloadBuildsNestedObjects(t *testing.T) {
	payload := ExamplePayload(EventTypeMaintenanceDue)

	assert.Equal(t, "maintenance_due", payload["event"])
	assert.NotEmpty(t, payload["timestamp"])

	motorcycle, ok := payload["motorcycle"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Daily Rider", motorcycle["name"])
	assert.Equal(t, 2021, motorcycle["year"])

	task, ok := payload["task"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Oil Change", task["name"])
	assert.Equal(t, 6000, task["nextDueOdometer"])
}

func TestExamplePayloadMileageUpdated(t *testing.T) {
	payload := ExamplePayload(EventTypeMileageUpdated)

	assert.Equal(t, 4500, payload["previousMileage"])
	assert.Equal(t, 5000, payload["newMileage"])

	_, hasTask := payload["task"]
	assert.False(t, hasTask)
}

func TestExamplePayloadUnknownTypeFallsBack(t *testing.T) {
	payload := ExamplePayload("oil_spill")

	assert.Equal(t, "oil_spill", payload["event"])
	assert.NotEmpty(t, payload["timestamp"])
	assert.Len(t, payload, 2)
}

func TestAssignPathReplacesScalarIntermediate(t *testing.T) {
	target := map[string]any{"motorcycle": "flat"}

	target = assignPath(target, "motorcycle.name", "SV650")

	motorcycle, ok := target["motorcycle"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "SV650", motorcycle["name"])
}
