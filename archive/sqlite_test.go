package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/interview"
	"github.com/safal938/nurse-sim/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArchive(t *testing.T) *SQLiteArchive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "nested", "archive.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func sampleRecord(id string, started time.Time) interview.Record {
	return interview.Record{
		SessionID: id,
		PatientID: "P0001",
		Gender:    "female",
		StartedAt: started,
		EndedAt:   started.Add(3 * time.Minute),
		Cycles:    1,
		Transcript: []transcript.Entry{
			{Timestamp: started.Add(time.Second), Speaker: core.SpeakerNurse, Text: "How are you?"},
			{Timestamp: started.Add(2 * time.Second), Speaker: core.SpeakerPatient, Text: "My eyes are yellow.",
				Highlights: []core.Highlight{{Level: core.HighlightDanger, Text: "eyes are yellow"}}},
		},
		Diagnoses: []core.Diagnosis{{ID: "d1", Label: "Hepatitis", Indicators: []string{"jaundice"}, IndicatorsCount: 1, Probability: "Low", Rank: 1}},
		Questions: []core.Question{{QID: "00001", Content: "Any fever?", Status: core.QuestionAsked, Answer: "No."}},
	}
}

func TestOpen_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "archive.db")
	a, err := Open(path, nil)
	require.NoError(t, err)
	defer a.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestArchive_RoundTrip(t *testing.T) {
	a := newTestArchive(t)
	started := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rec := sampleRecord("sess-1", started)

	require.NoError(t, a.Archive(t.Context(), rec))

	got, err := a.Get(t.Context(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, rec.PatientID, got.PatientID)
	assert.Equal(t, rec.Gender, got.Gender)
	assert.True(t, rec.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, rec.Diagnoses, got.Diagnoses)
	assert.Equal(t, rec.Questions, got.Questions)
	require.Len(t, got.Transcript, 2)
	assert.Equal(t, core.SpeakerPatient, got.Transcript[1].Speaker)
	assert.Equal(t, rec.Transcript[1].Highlights, got.Transcript[1].Highlights)
}

func TestArchive_ReplacesSession(t *testing.T) {
	a := newTestArchive(t)
	started := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rec := sampleRecord("sess-1", started)
	require.NoError(t, a.Archive(t.Context(), rec))

	rec.Cycles = 4
	rec.Transcript = rec.Transcript[:1]
	require.NoError(t, a.Archive(t.Context(), rec))

	got, err := a.Get(t.Context(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Cycles)
	assert.Len(t, got.Transcript, 1)
}

func TestGet_NotFound(t *testing.T) {
	a := newTestArchive(t)
	_, err := a.Get(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	a := newTestArchive(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, a.Archive(t.Context(), sampleRecord("old", base)))
	require.NoError(t, a.Archive(t.Context(), sampleRecord("new", base.Add(time.Hour))))

	list, err := a.List(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].SessionID)
	assert.Equal(t, 2, list[0].Entries)

	list, err = a.List(t.Context(), 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
