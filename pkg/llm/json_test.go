package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPlainObject(t *testing.T) {
	out, err := ExtractJSON(`{"summary":"fine"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"fine"}`, out)
}

func TestExtractJSONSurroundingProse(t *testing.T) {
	out, err := ExtractJSON("Sure, here is the result:\n{\"summary\":\"fine\"}\nHope that helps!")
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"fine"}`, out)
}

func TestExtractJSONMarkdownFence(t *testing.T) {
	out, err := ExtractJSON("```json\n{\"audience\":\"executives\",\"content\":\"update\"}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"audience":"executives","content":"update"}`, out)
}

func TestExtractJSONThinkTags(t *testing.T) {
	out, err := ExtractJSON("<think>reasoning about the incident</think>{\"summary\":\"done\"}")
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"done"}`, out)
}

func TestExtractJSONBracesInsideStrings(t *testing.T) {
	out, err := ExtractJSON(`{"summary":"impact was {severe} for 2h"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"impact was {severe} for 2h"}`, out)
}

func TestExtractJSONArray(t *testing.T) {
	out, err := ExtractJSON(`The factors: [{"category":"network"}]`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"category":"network"}]`, out)
}

func TestExtractJSONNoJSON(t *testing.T) {
	_, err := ExtractJSON("there is nothing structured here")
	require.Error(t, err)
	assert.Equal(t, ErrorTypeParseFailed, TypeOf(err))
}
