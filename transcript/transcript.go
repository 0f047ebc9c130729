// Package transcript holds the append-only record of dialogue turns shared by
// the live turn loop and the background enrichment monitor.
package transcript

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/safal938/nurse-sim/core"
)

// Entry is one committed turn. It is immutable once appended; Snapshot hands
// out deep copies so callers may modify what they receive.
type Entry struct {
	Timestamp  time.Time
	Speaker    core.Speaker
	Text       string
	Highlights []core.Highlight
}

type entryJSON struct {
	Timestamp string            `json:"timestamp"`
	Speaker   core.Speaker      `json:"speaker"`
	Text      string            `json:"text"`
	Highlight *[]core.Highlight `json:"highlight,omitempty"`
}

// MarshalJSON renders the entry in the wire shape consumed by capabilities:
// a wall clock timestamp and, for patient entries only, the highlight list.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{
		Timestamp: e.Timestamp.Format(time.TimeOnly),
		Speaker:   e.Speaker,
		Text:      e.Text,
	}
	if e.Speaker == core.SpeakerPatient {
		hl := e.Highlights
		if hl == nil {
			hl = []core.Highlight{}
		}
		out.Highlight = &hl
	}
	return json.Marshal(out)
}

func (e Entry) clone() Entry {
	if e.Highlights != nil {
		e.Highlights = append([]core.Highlight(nil), e.Highlights...)
	}
	return e
}

// Log is a concurrency safe, append-only sequence of entries.
//
// Contract:
//   - Append and Snapshot are mutually exclusive
//   - Snapshot returns an independent copy in append order
//   - Len never decreases
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	grown   chan struct{}
	now     func() time.Time
}

// New creates an empty log.
func New() *Log {
	return &Log{grown: make(chan struct{}, 1), now: time.Now}
}

// Append records a turn. Text is trimmed; highlights are copied.
func (l *Log) Append(speaker core.Speaker, text string, highlights []core.Highlight) {
	e := Entry{Speaker: speaker, Text: strings.TrimSpace(text), Highlights: highlights}.clone()

	l.mu.Lock()
	e.Timestamp = l.now()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	select {
	case l.grown <- struct{}{}:
	default:
	}
}

// Snapshot returns a deep copy of every entry committed before the call.
func (l *Log) Snapshot() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.clone()
	}
	return out
}

// Len returns the number of committed entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Grown returns a channel that receives a value after appends. Signals are
// coalesced: several appends between two receives produce one wake-up.
func (l *Log) Grown() <-chan struct{} { return l.grown }
