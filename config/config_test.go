package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nurse-sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
provider:
  project: demo-project
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.Server.StartTimeout)
	assert.Equal(t, time.Second, cfg.Session.PollInterval)
	assert.Equal(t, time.Second, cfg.Session.DeliveryTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Session.TurnGap)
	assert.Equal(t, 5*time.Millisecond, cfg.Session.AudioYield)
	assert.Equal(t, time.Minute, cfg.Session.CapabilityTimeout)
	assert.Equal(t, "Aoede", cfg.Voice.NurseVoice)
	assert.Equal(t, "Puck", cfg.Voice.PatientVoice)
	assert.Equal(t, "clinic_sim", cfg.Storage.Bucket)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Models.Advisor)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("NURSE_SIM_KEY", "sk-test")
	path := writeConfig(t, `
server:
  http_addr: ":9090"
  start_timeout: "5s"
provider:
  name: openai
  api_key: "${NURSE_SIM_KEY}"
models:
  advisor: gpt-4o-mini
voice:
  backend: text
session:
  turn_gap: "0s"
  trigger_gate: true
  max_cycles: 12
storage:
  backend: local
  root: /srv/profiles
archive:
  path: /var/lib/nurse-sim/archive.db
logging:
  level: debug
  format: console
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.Server.StartTimeout)
	assert.Equal(t, ProviderOpenAI, cfg.Provider.Name)
	assert.Equal(t, "sk-test", cfg.Provider.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.Models.Advisor)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Models.Ranker)
	assert.Equal(t, time.Duration(0), cfg.Session.TurnGap)
	assert.True(t, cfg.Session.TriggerGate)
	assert.Equal(t, 12, cfg.Session.MaxCycles)
	assert.Equal(t, StorageLocal, cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/nurse-sim/archive.db", cfg.Archive.Path)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"invalid duration", "provider: {project: p}\nsession: {poll_interval: soon}", "session.poll_interval"},
		{"unknown provider", "provider: {name: cohere}", "provider.name"},
		{"gemini without credentials", "provider: {name: gemini}", "provider.project"},
		{"live voice needs gemini", "provider: {name: openai}\nvoice: {backend: gemini-live}", "voice.backend"},
		{"unknown storage", "provider: {project: p}\nstorage: {backend: s3}", "storage.backend"},
		{"negative cycles", "provider: {project: p}\nsession: {max_cycles: -1}", "max_cycles"},
		{"malformed yaml", "provider: [", "parsing config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("NURSE_SIM_PROJECT", "clinic")
	assert.Equal(t, "project: clinic", expandEnvVars("project: ${NURSE_SIM_PROJECT}"))
	assert.Equal(t, "key: ", expandEnvVars("key: ${NURSE_SIM_UNSET_VAR}"))
}
