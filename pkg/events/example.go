package events

import (
	"strings"
	"time"
)

// ExamplePayload builds a nested example payload for the event type from its
// flat field catalog. Intermediate path segments become nested objects, the
// last segment receives the field's example value. Unknown event types fall
// back to the minimal envelope.
func ExamplePayload(t EventType) map[string]any {
	payload := map[string]any{
		"event":     string(t),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	for _, field := range SafeSchema(t).Fields {
		if field.Path == "event" || field.Path == "timestamp" {
			continue
		}
		payload = assignPath(payload, field.Path, field.Example)
	}

	return payload
}

// assignPath sets value at the dotted path, creating intermediate objects as
// needed. Existing non-object intermediates are replaced.
func assignPath(target map[string]any, path string, value any) map[string]any {
	if path == "" {
		return target
	}

	paths := strings.Split(path, ".")

	if len(paths) == 1 {
		target[paths[0]] = value
		return target
	}

	existing, ok := target[paths[0]].(map[string]any)
	if !ok {
		existing = make(map[string]any)
	}

	target[paths[0]] = assignPath(existing, strings.Join(paths[1:], "."), value)

	return target
}
