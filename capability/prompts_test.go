package capability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPrompts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "q_ranker.md"), []byte("Rank carefully."), 0o600))

	p, err := LoadPrompts(dir)
	require.NoError(t, err)
	assert.Equal(t, "Rank carefully.", p.Ranker)
	assert.Equal(t, DefaultPrompts().Advisor, p.Advisor)
	assert.Equal(t, "You are a nurse.", p.Nurse)
}

func TestLoadPrompts_MissingDir(t *testing.T) {
	p, err := LoadPrompts(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompts(), p)
}
