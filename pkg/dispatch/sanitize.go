package dispatch

import "strings"

// MaskedValue replaces sensitive values in persisted dispatch logs.
const MaskedValue = "********"

var sensitiveKeyParts = []string{
	"password",
	"token",
	"secret",
	"apikey",
	"apisecret",
	"key",
	"authorization",
	"auth",
	"credential",
}

// Sanitize returns a deep copy of the payload with every value under a
// sensitive-looking key replaced by MaskedValue. Matching is a
// case-insensitive substring check on the key name, applied recursively
// through nested maps and slices. Logs are sanitized; outbound payloads
// never are.
func Sanitize(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}

	result := make(map[string]any, len(payload))
	for key, value := range payload {
		if isSensitiveKey(key) {
			result[key] = MaskedValue
			continue
		}
		result[key] = sanitizeValue(value)
	}
	return result
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return Sanitize(v)
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = sanitizeValue(item)
		}
		return result
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
