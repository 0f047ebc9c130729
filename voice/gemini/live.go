// Package gemini implements voice sessions on the Gemini Live API. Each
// persona gets its own live connection with a prebuilt voice and output
// audio transcription enabled.
package gemini

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"github.com/safal938/nurse-sim/voice"
)

// DefaultModel is the native audio live model used when none is configured.
const DefaultModel = "gemini-live-2.5-flash-preview-native-audio-09-2025"

// Options configure the live dialer.
type Options struct {
	Model string
	// Temperature is left to the service default when nil.
	Temperature *float32
}

// Dialer opens live sessions.
type Dialer struct {
	client *genai.Client
	opts   Options
}

// NewDialer creates a Dialer on an existing genai client.
func NewDialer(client *genai.Client, optFns ...func(o *Options)) *Dialer {
	opts := Options{Model: DefaultModel}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dialer{client: client, opts: opts}
}

// ConnectConfig builds the live configuration for a persona.
func (d *Dialer) ConnectConfig(p voice.Persona) *genai.LiveConnectConfig {
	cfg := &genai.LiveConnectConfig{
		ResponseModalities:       []genai.Modality{genai.ModalityAudio},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
		Temperature:              d.opts.Temperature,
	}
	if p.Instructions != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(p.Instructions)}}
	}
	if p.Voice != "" {
		cfg.SpeechConfig = &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: p.Voice},
			},
		}
	}
	return cfg
}

// Dial implements voice.Dialer.
func (d *Dialer) Dial(ctx context.Context, p voice.Persona) (voice.Session, error) {
	s, err := d.client.Live.Connect(ctx, d.opts.Model, d.ConnectConfig(p))
	if err != nil {
		return nil, fmt.Errorf("live connect %s: %w", p.Role, err)
	}
	return &session{live: s}, nil
}

type session struct {
	live   *genai.Session
	mu     sync.Mutex
	closed bool
}

func (s *session) Send(_ context.Context, text string) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return voice.ErrNoSession
	}
	return s.live.SendClientContent(genai.LiveClientContentInput{
		Turns:        []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		TurnComplete: genai.Ptr(true),
	})
}

func (s *session) Receive(ctx context.Context) (<-chan voice.Chunk, <-chan error) {
	out := make(chan voice.Chunk, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)
		for {
			if err := ctx.Err(); err != nil {
				errCh <- err
				return
			}
			msg, err := s.live.Receive()
			if err != nil {
				errCh <- fmt.Errorf("live receive: %w", err)
				return
			}
			chunks, done := Chunks(msg)
			for _, c := range chunks {
				out <- c
			}
			if done {
				return
			}
		}
	}()

	return out, errCh
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.live.Close()
}

// Chunks converts one live server message into turn chunks. done reports
// that the turn has ended, either completed or interrupted; an interrupted
// turn yields no completion chunk.
func Chunks(msg *genai.LiveServerMessage) (chunks []voice.Chunk, done bool) {
	if msg == nil || msg.ServerContent == nil {
		return nil, false
	}
	sc := msg.ServerContent
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
				chunks = append(chunks, voice.Chunk{Kind: voice.ChunkAudio, Audio: p.InlineData.Data})
			}
		}
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		chunks = append(chunks, voice.Chunk{Kind: voice.ChunkText, Text: sc.OutputTranscription.Text})
	}
	if sc.TurnComplete {
		chunks = append(chunks, voice.Chunk{Kind: voice.ChunkTurnComplete})
		return chunks, true
	}
	return chunks, sc.Interrupted
}
