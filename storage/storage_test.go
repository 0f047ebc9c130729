package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	gcs "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestLocal_Get(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "patient_profile/P0001/patient_info.md", "Jane, 45")
	l := NewLocal(root)

	b, err := l.Get(t.Context(), "patient_profile/P0001/patient_info.md")
	require.NoError(t, err)
	assert.Equal(t, "Jane, 45", string(b))

	_, err = l.Get(t.Context(), "patient_profile/P0001/missing.md")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.Get(t.Context(), "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestProfiles_Key(t *testing.T) {
	p := Profiles{Prefix: "patient_profile"}

	key, err := p.Key("P0001", "patient_system.md")
	require.NoError(t, err)
	assert.Equal(t, "patient_profile/P0001/patient_system.md", key)

	for _, bad := range [][2]string{{"", "a.md"}, {"P0001", ""}, {"..", "a.md"}, {"P0001", "../x.md"}, {"P/1", "a.md"}} {
		_, err := p.Key(bad[0], bad[1])
		assert.ErrorIs(t, err, ErrInvalidPath, "pid=%q name=%q", bad[0], bad[1])
	}
}

type storeFunc func(ctx context.Context, key string) ([]byte, error)

func (f storeFunc) Get(ctx context.Context, key string) ([]byte, error) { return f(ctx, key) }

func TestProfiles_Text(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "patient_profile/P0001/patient_system.md", "You are Jane.")
	p := Profiles{Store: NewLocal(root), Prefix: "patient_profile"}

	assert.Equal(t, "You are Jane.", p.Text(t.Context(), "P0001", PatientSystemFile))
	assert.Equal(t, "System: Error - File patient_info.md not found.", p.Text(t.Context(), "P0001", PatientInfoFile))

	broken := Profiles{Store: storeFunc(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("permission denied")
	})}
	assert.Equal(t, "System: Error loading profile.", broken.Text(t.Context(), "P0001", PatientInfoFile))
}

func TestMapGCSError(t *testing.T) {
	assert.ErrorIs(t, mapGCSError(gcs.ErrObjectNotExist), ErrNotFound)
	assert.ErrorIs(t, mapGCSError(gcs.ErrBucketNotExist), ErrNotFound)

	other := errors.New("timeout")
	assert.Equal(t, other, mapGCSError(other))
}
