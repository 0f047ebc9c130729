package interview

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/safal938/nurse-sim/capability"
	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/transcript"
)

// recordingConn is an in-memory Connection that records every event.
type recordingConn struct {
	mu           sync.Mutex
	events       []Event
	disconnected atomic.Bool
	// block, when non-nil, stalls every Send until it is closed or the
	// caller's context ends.
	block  chan struct{}
	onSend func(c *recordingConn, ev Event)
}

func (c *recordingConn) Send(ctx context.Context, ev Event) error {
	if c.block != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.block:
		}
	}
	if c.disconnected.Load() {
		return ErrDisconnected
	}
	c.mu.Lock()
	c.events = append(c.events, ev)
	hook := c.onSend
	c.mu.Unlock()
	if hook != nil {
		hook(c, ev)
	}
	return nil
}

func (c *recordingConn) Disconnected() bool { return c.disconnected.Load() }

func (c *recordingConn) disconnect() { c.disconnected.Store(true) }

func (c *recordingConn) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func (c *recordingConn) ofType(t EventType) []Event {
	var out []Event
	for _, ev := range c.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (c *recordingConn) systemMessages() []string {
	var out []string
	for _, ev := range c.ofType(EventSystem) {
		out = append(out, ev.Message)
	}
	return out
}

func (c *recordingConn) markers() []string {
	var out []string
	for _, ev := range c.ofType(EventTurn) {
		out = append(out, ev.Marker)
	}
	return out
}

// stubHighlighter returns fixed highlights and records its input.
type stubHighlighter struct {
	mu     sync.Mutex
	result []core.Highlight
	calls  []string
}

func (h *stubHighlighter) Highlight(_ context.Context, answer string, _ []core.Diagnosis) []core.Highlight {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, answer)
	return h.result
}

// panickyCaps wraps a Capabilities and panics in Diagnose while armed.
type panickyCaps struct {
	Capabilities
	armed atomic.Bool
}

func (p *panickyCaps) Diagnose(ctx context.Context, snap []transcript.Entry, prior []core.Diagnosis) capability.DiagnoseResult {
	if p.armed.Load() {
		panic("diagnose exploded")
	}
	return p.Capabilities.Diagnose(ctx, snap, prior)
}

func hepatitisSet() capability.Set {
	return capability.Set{
		Diagnoser: capability.DiagnoseFunc(func(_ context.Context, _ []transcript.Entry, _ []core.Diagnosis) (capability.DiagnoseResult, error) {
			return capability.DiagnoseResult{
				Diagnoses: []core.Diagnosis{{ID: "d1", Label: "Hepatitis", Indicators: []string{"jaundice", "fatigue"}}},
				FollowUps: []string{"Any fever?", "Have you travelled recently?"},
			}, nil
		}),
		Evaluator: capability.MergeFunc(func(_ context.Context, pool, candidates []core.Diagnosis, _ []transcript.Entry) ([]core.Diagnosis, error) {
			return append(append([]core.Diagnosis(nil), pool...), candidates...), nil
		}),
		Ranker: capability.RankFunc(func(_ context.Context, _ []transcript.Entry, _ []core.Diagnosis, qs []core.Question) ([]core.Ranking, error) {
			out := make([]core.Ranking, len(qs))
			for i, q := range qs {
				out[i] = core.Ranking{Rank: len(qs) - i, QID: q.QID}
			}
			return out, nil
		}),
	}
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

// attr returns the value logged under key.
func (e logEntry) attr(key string) any {
	for i := 0; i+1 < len(e.args); i += 2 {
		if e.args[i] == key {
			return e.args[i+1]
		}
	}
	return nil
}

// captureLogger records every log call.
type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *captureLogger) find(msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}
