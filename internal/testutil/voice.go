package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/voice"
)

// Reply scripts one turn of a ScriptedSession.
type Reply struct {
	Audio [][]byte
	Text  []string
	// SendErr fails the Send call of this turn.
	SendErr error
	// StreamErr is delivered after the chunks instead of a completion.
	StreamErr error
	// Incomplete ends the stream without a completion chunk.
	Incomplete bool
}

// Say is shorthand for a reply with one audio chunk per text fragment.
func Say(fragments ...string) Reply {
	r := Reply{Text: fragments}
	for range fragments {
		r.Audio = append(r.Audio, []byte{0x01, 0x02})
	}
	return r
}

// ScriptedSession is a voice.Session that plays back scripted replies in
// order. Once the script is exhausted every turn completes silently.
type ScriptedSession struct {
	mu      sync.Mutex
	replies []Reply
	current *Reply
	inputs  []string
	closed  bool
}

// NewScriptedSession creates a session playing replies in order.
func NewScriptedSession(replies ...Reply) *ScriptedSession {
	return &ScriptedSession{replies: replies}
}

// Send implements voice.Session.
func (s *ScriptedSession) Send(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("session closed")
	}
	s.inputs = append(s.inputs, text)
	r := Reply{}
	if len(s.replies) > 0 {
		r = s.replies[0]
		s.replies = s.replies[1:]
	}
	if r.SendErr != nil {
		return r.SendErr
	}
	s.current = &r
	return nil
}

// Receive implements voice.Session.
func (s *ScriptedSession) Receive(_ context.Context) (<-chan voice.Chunk, <-chan error) {
	s.mu.Lock()
	r := s.current
	s.current = nil
	s.mu.Unlock()

	errCh := make(chan error, 1)
	defer close(errCh)
	if r == nil {
		out := make(chan voice.Chunk)
		close(out)
		errCh <- voice.ErrNoSession
		return out, errCh
	}

	out := make(chan voice.Chunk, len(r.Audio)+len(r.Text)+1)
	defer close(out)
	for i, t := range r.Text {
		if i < len(r.Audio) {
			out <- voice.Chunk{Kind: voice.ChunkAudio, Audio: r.Audio[i]}
		}
		out <- voice.Chunk{Kind: voice.ChunkText, Text: t}
	}
	for i := len(r.Text); i < len(r.Audio); i++ {
		out <- voice.Chunk{Kind: voice.ChunkAudio, Audio: r.Audio[i]}
	}
	switch {
	case r.StreamErr != nil:
		errCh <- r.StreamErr
	case !r.Incomplete:
		out <- voice.Chunk{Kind: voice.ChunkTurnComplete}
	}
	return out, errCh
}

// Close implements voice.Session.
func (s *ScriptedSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Inputs returns every text passed to Send.
func (s *ScriptedSession) Inputs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.inputs...)
}

// Closed reports whether Close was called.
func (s *ScriptedSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ScriptedDialer hands out fixed sessions by role.
type ScriptedDialer struct {
	Sessions map[core.Speaker]voice.Session
	Err      error
}

// Dial implements voice.Dialer.
func (d ScriptedDialer) Dial(_ context.Context, p voice.Persona) (voice.Session, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	s, ok := d.Sessions[p.Role]
	if !ok {
		return nil, voice.ErrNoSession
	}
	return s, nil
}
