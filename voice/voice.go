// Package voice defines the conversational turn capability used by the nurse
// and patient agents: text goes in, a stream of audio chunks, transcript
// deltas and a completion signal comes out.
package voice

import (
	"context"
	"errors"

	"github.com/safal938/nurse-sim/core"
)

// ErrNoSession is returned when a turn is requested on a closed or missing session.
var ErrNoSession = errors.New("voice session not available")

// ChunkKind discriminates streamed turn output.
type ChunkKind int

const (
	// ChunkAudio carries encoded audio bytes.
	ChunkAudio ChunkKind = iota
	// ChunkText carries a transcript fragment.
	ChunkText
	// ChunkTurnComplete marks the end of the agent's turn.
	ChunkTurnComplete
)

// String implements fmt.Stringer.
func (k ChunkKind) String() string {
	switch k {
	case ChunkAudio:
		return "audio"
	case ChunkText:
		return "text"
	case ChunkTurnComplete:
		return "turn_complete"
	default:
		return "unknown"
	}
}

// Chunk is one element of a streamed turn.
type Chunk struct {
	Kind  ChunkKind
	Audio []byte
	Text  string
}

// Session is a long lived conversation with one agent. Turns are strictly
// sequential: Send an utterance, then drain Receive until it closes.
type Session interface {
	// Send submits the input for the next turn.
	Send(ctx context.Context, text string) error

	// Receive streams the output of the current turn. The chunk channel is
	// closed after a ChunkTurnComplete or when the stream ends early; at most
	// one error is delivered on the error channel.
	Receive(ctx context.Context) (<-chan Chunk, <-chan error)

	// Close releases the underlying connection.
	Close() error
}

// Persona configures an agent's session.
type Persona struct {
	Role         core.Speaker
	Instructions string
	Voice        string
}

// Dialer opens sessions for personas.
type Dialer interface {
	Dial(ctx context.Context, p Persona) (Session, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, p Persona) (Session, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context, p Persona) (Session, error) { return f(ctx, p) }
