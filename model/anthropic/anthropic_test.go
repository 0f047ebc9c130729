package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/model"
)

func TestBuildParams(t *testing.T) {
	m := NewModel(func(o *Options) { o.APIKey = "test"; o.Temperature = 0.5 })

	req := model.Request{
		Instructions: "Advise nurse.",
		Contents: []core.Content{
			core.NewTextContent("system", "extra"),
			core.NewTextContent("user", "history"),
			core.NewTextContent("assistant", ""),
		},
		ResponseSchema: map[string]any{"type": "object"},
		Temperature:    model.Float(0.2),
	}
	params, err := m.buildParams(req)
	require.NoError(t, err)

	require.Len(t, params.Messages, 1)
	require.Len(t, params.System, 1)
	assert.Contains(t, params.System[0].Text, "Advise nurse.")
	assert.Contains(t, params.System[0].Text, "extra")
	assert.Contains(t, params.System[0].Text, `{"type":"object"}`)
	assert.InDelta(t, 0.2, params.Temperature.Value, 1e-9)
}

func TestBuildParams_DefaultTemperature(t *testing.T) {
	m := NewModel(func(o *Options) { o.APIKey = "test"; o.Temperature = 0.5 })
	params, err := m.buildParams(model.Request{Contents: []core.Content{core.NewTextContent("user", "hi")}})
	require.NoError(t, err)
	assert.Empty(t, params.System)
	assert.InDelta(t, 0.5, params.Temperature.Value, 1e-9)
}

func TestInfo(t *testing.T) {
	m := NewModel(func(o *Options) { o.APIKey = "test" })
	assert.Equal(t, "anthropic", m.Info().Provider)
}
