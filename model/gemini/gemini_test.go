package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/model"
)

func TestBuildContents_Roles(t *testing.T) {
	got := buildContents([]core.Content{
		core.NewTextContent("system", "ctx"),
		core.NewTextContent("user", "hi"),
		core.NewTextContent("assistant", "hello"),
		core.NewTextContent("user", ""),
	})
	require.Len(t, got, 3)
	assert.Equal(t, genai.RoleUser, got[0].Role)
	assert.Equal(t, genai.RoleModel, got[2].Role)
	assert.Equal(t, "hello", got[2].Parts[0].Text)
}

func TestBuildConfig(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) { o.Temperature = 0.4; o.MaxOutputTokens = 256 })

	cfg := m.buildConfig(model.Request{
		Instructions:   "Diagnose patient.",
		ResponseSchema: map[string]any{"type": "object"},
		Temperature:    model.Float(0.2),
	})
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "Diagnose patient.", cfg.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.Equal(t, map[string]any{"type": "object"}, cfg.ResponseJsonSchema)
	assert.InDelta(t, 0.2, *cfg.Temperature, 1e-6)
	assert.Equal(t, int32(256), cfg.MaxOutputTokens)

	plain := m.buildConfig(model.Request{})
	assert.Nil(t, plain.SystemInstruction)
	assert.Empty(t, plain.ResponseMIMEType)
	assert.InDelta(t, 0.4, *plain.Temperature, 1e-6)
}

func TestInfo(t *testing.T) {
	m := NewModelFromClient(nil)
	assert.Equal(t, "gemini-2.5-flash-lite", m.Info().Name)
	assert.Equal(t, "gemini", m.Info().Provider)
}
