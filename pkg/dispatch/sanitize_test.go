package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeMasksSensitiveKeys(t *testing.T) {
	payload := map[string]any{
		"url":           "https://example.com/hook",
		"Authorization": "Bearer abc123",
		"api_key":       "xyz",
		"password":      "hunter2",
		"note":          "safe",
	}

	sanitized := Sanitize(payload)

	assert.Equal(t, "https://example.com/hook", sanitized["url"])
	assert.Equal(t, MaskedValue, sanitized["Authorization"])
	assert.Equal(t, MaskedValue, sanitized["api_key"])
	assert.Equal(t, MaskedValue, sanitized["password"])
	assert.Equal(t, "safe", sanitized["note"])
}

func TestSanitizeRecursesNestedStructures(t *testing.T) {
	payload := map[string]any{
		"headers": map[string]any{
			"X-Api-Token": "secret-token",
			"Accept":      "application/json",
		},
		"attempts": []any{
			map[string]any{"client_secret": "shh", "status": 200},
			"plain string",
		},
	}

	sanitized := Sanitize(payload)

	headers, ok := sanitized["headers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, MaskedValue, headers["X-Api-Token"])
	assert.Equal(t, "application/json", headers["Accept"])

	attempts, ok := sanitized["attempts"].([]any)
	require.True(t, ok)
	first, ok := attempts[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, MaskedValue, first["client_secret"])
	assert.Equal(t, 200, first["status"])
	assert.Equal(t, "plain string", attempts[1])
}

func TestSanitizeDoesNotMutateInput(t *testing.T) {
	payload := map[string]any{
		"password": "hunter2",
		"nested":   map[string]any{"token": "abc"},
	}

	Sanitize(payload)

	assert.Equal(t, "hunter2", payload["password"])
	nested := payload["nested"].(map[string]any)
	assert.Equal(t, "abc", nested["token"])
}

func TestSanitizeNil(t *testing.T) {
	assert.Nil(t, Sanitize(nil))
}
