package voice

import (
	"context"
	"strings"
	"sync"

	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/model"
)

// ModelDialer opens text-only sessions backed by a streaming model.Model.
// Turns produce transcript deltas and a completion signal but no audio.
type ModelDialer struct {
	Model model.Model
}

// Dial implements Dialer.
func (d ModelDialer) Dial(_ context.Context, p Persona) (Session, error) {
	return NewModelSession(d.Model, p), nil
}

// ModelSession keeps the conversation history for one persona and replays it
// to the model on every turn.
type ModelSession struct {
	model   model.Model
	persona Persona

	mu      sync.Mutex
	history []core.Content
	pending bool
	closed  bool
}

// NewModelSession creates a session for persona p.
func NewModelSession(m model.Model, p Persona) *ModelSession {
	return &ModelSession{model: m, persona: p}
}

// Send implements Session.
func (s *ModelSession) Send(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNoSession
	}
	s.history = append(s.history, core.NewTextContent("user", text))
	s.pending = true
	return nil
}

// Receive implements Session.
func (s *ModelSession) Receive(ctx context.Context) (<-chan Chunk, <-chan error) {
	out := make(chan Chunk, 32)
	errCh := make(chan error, 1)

	s.mu.Lock()
	if s.closed || !s.pending {
		s.mu.Unlock()
		close(out)
		errCh <- ErrNoSession
		close(errCh)
		return out, errCh
	}
	s.pending = false
	req := model.Request{
		Instructions: s.persona.Instructions,
		Contents:     append([]core.Content(nil), s.history...),
		Stream:       true,
	}
	s.mu.Unlock()

	go func() {
		defer close(out)
		defer close(errCh)

		respCh, genErr := s.model.Generate(ctx, req)
		var (
			final    string
			streamed strings.Builder
		)
		for respCh != nil || genErr != nil {
			select {
			case r, ok := <-respCh:
				if !ok {
					respCh = nil
					continue
				}
				if r.Partial {
					streamed.WriteString(r.Content.Text())
					out <- Chunk{Kind: ChunkText, Text: r.Content.Text()}
					continue
				}
				final = r.Content.Text()
			case err, ok := <-genErr:
				if !ok {
					genErr = nil
					continue
				}
				if err != nil {
					errCh <- err
					return
				}
			}
		}

		switch {
		case streamed.Len() > 0:
			if final == "" {
				final = streamed.String()
			}
		case final != "":
			out <- Chunk{Kind: ChunkText, Text: final}
		}
		s.mu.Lock()
		s.history = append(s.history, core.NewTextContent("assistant", final))
		s.mu.Unlock()
		out <- Chunk{Kind: ChunkTurnComplete}
	}()

	return out, errCh
}

// Close implements Session.
func (s *ModelSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
