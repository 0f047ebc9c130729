package interview

import (
	"context"
	"strings"
	"time"

	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/logging"
	"github.com/safal938/nurse-sim/voice"
)

// TurnStatus classifies the outcome of a turn.
type TurnStatus int

const (
	// TurnFailed means the send or the stream failed before completion.
	TurnFailed TurnStatus = iota
	// TurnSilent means the turn completed, or ended, without any text.
	TurnSilent
	// TurnSpoken means the turn completed with non-empty text.
	TurnSpoken
)

func (s TurnStatus) String() string {
	switch s {
	case TurnFailed:
		return "failed"
	case TurnSilent:
		return "silent"
	case TurnSpoken:
		return "spoken"
	default:
		return "unknown"
	}
}

// TurnResult is what a turn produced.
type TurnResult struct {
	ID         string
	Status     TurnStatus
	Text       string
	Highlights []core.Highlight
}

// Highlighter annotates a finished patient utterance.
type Highlighter interface {
	Highlight(ctx context.Context, answer string, diagnoses []core.Diagnosis) []core.Highlight
}

// TurnOptions configure a TurnController.
type TurnOptions struct {
	// AudioYield is slept after forwarding each audio chunk so other work on
	// the connection gets a chance to run.
	AudioYield time.Duration
	NewID      func() string
	Logger     logging.Logger
}

// TurnController drives one streamed utterance of an agent and forwards it
// to the client as it arrives.
type TurnController struct {
	conn Connection
	opts TurnOptions
}

// NewTurnController creates a controller writing to conn.
func NewTurnController(conn Connection, optFns ...func(o *TurnOptions)) *TurnController {
	opts := TurnOptions{AudioYield: 5 * time.Millisecond, NewID: core.NewID, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &TurnController{conn: conn, opts: opts}
}

// Turn describes one utterance to produce.
type Turn struct {
	Session voice.Session
	Speaker core.Speaker
	Input   string
	// Highlighter and Diagnoses are only consulted for patient turns.
	Highlighter Highlighter
	Diagnoses   []core.Diagnosis
}

// Run sends the input, streams the reply to the client and returns the
// outcome. Client delivery failures are ignored; only session failures
// fail the turn. The session's chunk channel is always drained.
func (tc *TurnController) Run(ctx context.Context, t Turn) TurnResult {
	res := TurnResult{ID: tc.opts.NewID(), Status: TurnFailed}
	log := tc.opts.Logger

	if t.Session == nil {
		log.Warn("turn skipped", "speaker", t.Speaker, "error", voice.ErrNoSession)
		return res
	}
	if err := t.Session.Send(ctx, t.Input); err != nil {
		log.Warn("turn send failed", "speaker", t.Speaker, "error", err)
		return res
	}

	chunks, errs := t.Session.Receive(ctx)
	var (
		sb        strings.Builder
		completed bool
	)
	for c := range chunks {
		if completed {
			continue
		}
		switch c.Kind {
		case voice.ChunkAudio:
			tc.push(ctx, AudioEvent(res.ID, t.Speaker, c.Audio))
			tc.yield(ctx)
		case voice.ChunkText:
			sb.WriteString(c.Text)
			tc.push(ctx, TextDeltaEvent(res.ID, t.Speaker, c.Text))
		case voice.ChunkTurnComplete:
			completed = true
		}
	}
	if err := <-errs; err != nil && !completed {
		log.Warn("turn stream failed", "speaker", t.Speaker, "turn_id", res.ID, "error", err)
		return res
	}
	if !completed {
		log.Debug("turn ended without completion", "speaker", t.Speaker, "turn_id", res.ID)
		res.Status = TurnSilent
		return res
	}

	tc.push(ctx, TurnCompleteEvent(res.ID, t.Speaker))

	res.Text = strings.TrimSpace(sb.String())
	if res.Text == "" {
		res.Status = TurnSilent
		return res
	}
	res.Status = TurnSpoken
	res.Highlights = []core.Highlight{}
	if t.Speaker == core.SpeakerPatient && t.Highlighter != nil {
		res.Highlights = t.Highlighter.Highlight(ctx, res.Text, t.Diagnoses)
	}
	tc.push(ctx, TranscriptFinalEvent(res.ID, t.Speaker, res.Text, res.Highlights))
	return res
}

func (tc *TurnController) push(ctx context.Context, ev Event) {
	if tc.conn.Disconnected() {
		return
	}
	if err := tc.conn.Send(ctx, ev); err != nil {
		tc.opts.Logger.Debug("turn event not delivered", "type", ev.Type, "error", err)
	}
}

func (tc *TurnController) yield(ctx context.Context) {
	if tc.opts.AudioYield <= 0 {
		return
	}
	t := time.NewTimer(tc.opts.AudioYield)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
