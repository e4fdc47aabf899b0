package expressions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	evaluator := NewEvaluator()

	result, err := evaluator.Evaluate("motorcycle.name", testData())
	require.NoError(t, err)
	assert.Equal(t, "SV650", result)
}

func TestEvaluateInvalidExpression(t *testing.T) {
	evaluator := NewEvaluator()

	_, err := evaluator.Evaluate("..bad..", testData())
	assert.Error(t, err)
}

func TestEvaluateStringDistinguishesMissingFromEmpty(t *testing.T) {
	evaluator := NewEvaluator()

	data := map[string]any{"empty": "", "zero": 0}

	value, found, err := evaluator.EvaluateString("empty", data)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "", value)

	value, found, err = evaluator.EvaluateString("zero", data)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "0", value)

	_, found, err = evaluator.EvaluateString("missing", data)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestValidate(t *testing.T) {
	evaluator := NewEvaluator()

	assert.NoError(t, evaluator.Validate("motorcycle.name"))
	assert.Error(t, evaluator.Validate("..bad.."))
}

func TestEvaluatorCachesCompiledExpressions(t *testing.T) {
	evaluator := NewEvaluator()

	_, err := evaluator.Evaluate("motorcycle.name", testData())
	require.NoError(t, err)
	_, err = evaluator.Evaluate("motorcycle.name", testData())
	require.NoError(t, err)

	assert.Len(t, evaluator.cache, 1)
}
