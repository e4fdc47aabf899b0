package expressions

import (
	"regexp"
	"strings"
)

var (
	// templatePattern matches {{ expression }} patterns
	templatePattern = regexp.MustCompile(`\{\{\s*(.+?)\s*\}\}`)
)

// RenderMode controls how unresolvable placeholders are rendered.
type RenderMode int

const (
	// RenderModeLive replaces unresolvable placeholders with an empty
	// string, keeping outbound payloads clean.
	RenderModeLive RenderMode = iota

	// RenderModePreview replaces unresolvable placeholders with a visible
	// marker so users can spot typos before saving a template.
	RenderModePreview
)

const previewMissingMarker = "[Not Found]"

// Template handles string interpolation with JMESPath expressions
type Template struct {
	evaluator *Evaluator
	mode      RenderMode
}

// NewTemplate creates a new template processor
func NewTemplate(evaluator *Evaluator, mode RenderMode) *Template {
	return &Template{
		evaluator: evaluator,
		mode:      mode,
	}
}

// Render replaces {{ expression }} patterns in a string with evaluated values
func (t *Template) Render(template string, data interface{}) string {
	return templatePattern.ReplaceAllStringFunc(template, func(match string) string {
		submatch := templatePattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return t.missing()
		}

		expression := strings.TrimSpace(submatch[1])
		value, found, err := t.evaluator.EvaluateString(expression, data)
		if err != nil || !found {
			return t.missing()
		}

		return value
	})
}

// RenderMap renders all string values in a map
func (t *Template) RenderMap(input map[string]interface{}, data interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for key, value := range input {
		result[key] = t.RenderValue(value, data)
	}

	return result
}

// RenderValue renders a value, handling strings, maps, and slices
func (t *Template) RenderValue(value interface{}, data interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return t.Render(v, data)

	case map[string]interface{}:
		return t.RenderMap(v, data)

	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = t.RenderValue(item, data)
		}
		return result

	default:
		return value
	}
}

func (t *Template) missing() string {
	if t.mode == RenderModePreview {
		return previewMissingMarker
	}
	return ""
}

// HasTemplates checks if a string contains template expressions
func HasTemplates(s string) bool {
	return templatePattern.MatchString(s)
}

// ExtractExpressions extracts all expressions from a template string
func ExtractExpressions(template string) []string {
	matches := templatePattern.FindAllStringSubmatch(template, -1)
	expressions := make([]string, 0, len(matches))

	for _, match := range matches {
		if len(match) >= 2 {
			expressions = append(expressions, strings.TrimSpace(match[1]))
		}
	}

	return expressions
}
