package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/safal938/nurse-sim/logging"
)

var (
	// ErrNotFound is returned when an object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidPath is returned for ids or names that would escape the
	// profile prefix.
	ErrInvalidPath = errors.New("invalid object path")
)

// Store reads whole objects by key. Keys use forward slashes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Profile file names read at session start.
const (
	PatientSystemFile = "patient_system.md"
	PatientInfoFile   = "patient_info.md"
)

// Profiles addresses per-patient files under <Prefix>/<pid>/<name>.
type Profiles struct {
	Store  Store
	Prefix string
	Logger logging.Logger
}

// Key returns the object key of a patient file.
func (p Profiles) Key(pid, name string) (string, error) {
	for _, part := range []string{pid, name} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, part)
		}
	}
	return path.Join(p.Prefix, pid, name), nil
}

// Read returns the raw bytes of a patient file.
func (p Profiles) Read(ctx context.Context, pid, name string) ([]byte, error) {
	key, err := p.Key(pid, name)
	if err != nil {
		return nil, err
	}
	b, err := p.Store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return b, nil
}

// Text returns a patient file as text. Failures are reported in-band with
// a sentinel string so the session can proceed without the file.
func (p Profiles) Text(ctx context.Context, pid, name string) string {
	b, err := p.Read(ctx, pid, name)
	switch {
	case err == nil:
		return string(b)
	case errors.Is(err, ErrNotFound):
		p.logger().Warn("profile file not found", "pid", pid, "file", name)
		return fmt.Sprintf("System: Error - File %s not found.", name)
	default:
		p.logger().Error("profile file unreadable", "pid", pid, "file", name, "error", err)
		return "System: Error loading profile."
	}
}

func (p Profiles) logger() logging.Logger {
	if p.Logger == nil {
		return logging.NoOpLogger{}
	}
	return p.Logger
}
