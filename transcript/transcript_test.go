package transcript

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safal938/nurse-sim/core"
)

func TestLog_AppendAndSnapshot(t *testing.T) {
	l := New()
	l.Append(core.SpeakerNurse, "  Hello there ", nil)
	l.Append(core.SpeakerPatient, "My chest hurts", []core.Highlight{{Level: core.HighlightDanger, Text: "chest hurts"}})

	snap := l.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "Hello there", snap[0].Text)
	assert.Equal(t, core.SpeakerPatient, snap[1].Speaker)
	assert.Equal(t, 2, l.Len())
}

func TestLog_SnapshotIsIndependent(t *testing.T) {
	l := New()
	l.Append(core.SpeakerPatient, "dizzy", []core.Highlight{{Level: core.HighlightWarning, Text: "dizzy"}})

	snap := l.Snapshot()
	snap[0].Text = "changed"
	snap[0].Highlights[0].Text = "changed"

	again := l.Snapshot()
	assert.Equal(t, "dizzy", again[0].Text)
	assert.Equal(t, "dizzy", again[0].Highlights[0].Text)
}

func TestLog_AppendCopiesCallerHighlights(t *testing.T) {
	l := New()
	hl := []core.Highlight{{Level: core.HighlightWarning, Text: "cough"}}
	l.Append(core.SpeakerPatient, "cough", hl)
	hl[0].Text = "mutated"
	assert.Equal(t, "cough", l.Snapshot()[0].Highlights[0].Text)
}

func TestLog_ConcurrentAppendSnapshot(t *testing.T) {
	l := New()
	const writers, perWriter = 4, 200

	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				l.Append(core.SpeakerNurse, fmt.Sprintf("w%d-%d", w, i), nil)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		prev := 0
		for l.Len() < writers*perWriter {
			snap := l.Snapshot()
			assert.GreaterOrEqual(t, len(snap), prev)
			for _, e := range snap {
				assert.NotEmpty(t, e.Text)
			}
			prev = len(snap)
		}
	}()

	wg.Wait()
	<-done
	assert.Len(t, l.Snapshot(), writers*perWriter)
}

func TestLog_GrownCoalesces(t *testing.T) {
	l := New()
	l.Append(core.SpeakerNurse, "a", nil)
	l.Append(core.SpeakerNurse, "b", nil)

	select {
	case <-l.Grown():
	case <-time.After(time.Second):
		t.Fatal("expected wake-up after append")
	}
	select {
	case <-l.Grown():
		t.Fatal("signals should be coalesced")
	default:
	}
}

func TestEntry_MarshalJSON(t *testing.T) {
	ts := time.Date(2024, 1, 2, 9, 5, 7, 0, time.UTC)

	nurse, err := json.Marshal(Entry{Timestamp: ts, Speaker: core.SpeakerNurse, Text: "Hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"09:05:07","speaker":"NURSE","text":"Hi"}`, string(nurse))

	patient, err := json.Marshal(Entry{Timestamp: ts, Speaker: core.SpeakerPatient, Text: "Ok"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"09:05:07","speaker":"PATIENT","text":"Ok","highlight":[]}`, string(patient))
}
