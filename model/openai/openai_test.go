package openai

import (
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/model"
)

func TestBuildParams_SchemaAndTemperature(t *testing.T) {
	client := openai.NewClient()
	m := NewModelFromClient(&client, func(o *Options) { o.Model = "gpt-test" })

	req := model.Request{
		Instructions:   "Rank by priority.",
		Contents:       []core.Content{core.NewTextContent("user", "questions")},
		ResponseSchema: map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		SchemaName:     "ranking",
		Temperature:    model.Float(0.1),
	}
	params := m.buildParams(req)

	assert.Len(t, params.Messages, 2)
	assert.Equal(t, "gpt-test", params.Model)
	assert.InDelta(t, 0.1, params.Temperature.Value, 1e-9)
	require.NotNil(t, params.ResponseFormat.OfJSONSchema)
	js := params.ResponseFormat.OfJSONSchema.JSONSchema
	assert.Equal(t, "ranking", js.Name)
	root := js.Schema.(map[string]any)
	assert.Equal(t, "object", root["type"])
}

func TestBuildParams_NoSchema(t *testing.T) {
	client := openai.NewClient()
	m := NewModelFromClient(&client)
	params := m.buildParams(model.Request{Contents: []core.Content{core.NewTextContent("user", "hi")}})
	assert.Nil(t, params.ResponseFormat.OfJSONSchema)
	assert.InDelta(t, 0.7, params.Temperature.Value, 1e-9)
}

func TestUnwrapResult(t *testing.T) {
	assert.Equal(t, `[1,2]`, unwrapResult(`{"result":[1,2]}`))
	assert.Equal(t, `plain`, unwrapResult(`plain`))
	assert.False(t, isWrapped(map[string]any{"type": "object"}))
	assert.True(t, isWrapped(map[string]any{"type": "array"}))
	assert.False(t, isWrapped(nil))
}
