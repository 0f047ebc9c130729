package voice

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/model"
)

func drain(t *testing.T, s Session) ([]Chunk, error) {
	t.Helper()
	chunks, errCh := s.Receive(t.Context())
	var got []Chunk
	for c := range chunks {
		got = append(got, c)
	}
	return got, <-errCh
}

func TestModelSession_Turn(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	m.AddResponse("Hello.", "Hi")

	d := ModelDialer{Model: m}
	s, err := d.Dial(t.Context(), Persona{Role: core.SpeakerNurse, Instructions: "Be a nurse."})
	require.NoError(t, err)

	require.NoError(t, s.Send(t.Context(), "Hello."))
	chunks, err := drain(t, s)
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Equal(t, Chunk{Kind: ChunkText, Text: "H"}, chunks[0])
	assert.Equal(t, ChunkTurnComplete, chunks[2].Kind)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Be a nurse.", reqs[0].Instructions)
	assert.True(t, reqs[0].Stream)
}

func TestModelSession_HistoryGrows(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	s := NewModelSession(m, Persona{Role: core.SpeakerPatient})

	for _, in := range []string{"one", "two"} {
		require.NoError(t, s.Send(t.Context(), in))
		_, err := drain(t, s)
		require.NoError(t, err)
	}
	reqs := m.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].Contents, 3)
	assert.Equal(t, "assistant", reqs[1].Contents[1].Role)
}

func TestModelSession_Errors(t *testing.T) {
	m := model.NewMockModel("mock", "test")
	boom := errors.New("boom")
	m.AddError("fail", boom)
	s := NewModelSession(m, Persona{})

	_, err := drain(t, s)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, s.Send(t.Context(), "fail"))
	chunks, err := drain(t, s)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, chunks)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Send(t.Context(), "x"), ErrNoSession)
}

func TestChunkKind_String(t *testing.T) {
	assert.Equal(t, "audio", ChunkAudio.String())
	assert.Equal(t, "turn_complete", ChunkTurnComplete.String())
}
