package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContent_Text(t *testing.T) {
	c := Content{Role: "assistant", Parts: []Part{
		TextPart{Text: "hello "},
		BlobPart{MimeType: "audio/pcm", Data: []byte{1, 2}},
		TextPart{Text: "world"},
	}}
	assert.Equal(t, "hello world", c.Text())
	assert.Equal(t, "hi", NewTextContent("user", "hi").Text())
}

func TestSpeaker_Valid(t *testing.T) {
	assert.True(t, SpeakerNurse.Valid())
	assert.True(t, SpeakerPatientInfo.Valid())
	assert.False(t, Speaker("DOCTOR").Valid())
}

func TestDiagnosis_WireShape(t *testing.T) {
	d := Diagnosis{ID: "D1", Label: "Angina", Indicators: []string{"chest pain"}}
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"did":"D1","diagnosis":"Angina","indicators_point":["chest pain"]}`, string(raw))
}

func TestDiagnosis_BasicCopiesIndicators(t *testing.T) {
	d := Diagnosis{ID: "D1", Label: "Angina", Indicators: []string{"a"}, Rank: 2, Probability: "High"}
	b := d.Basic()
	b.Indicators[0] = "changed"
	assert.Equal(t, "a", d.Indicators[0])
	assert.Zero(t, b.Rank)
	assert.Empty(t, b.Probability)
}

func TestNewID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := NewID()
		require.False(t, seen[id])
		seen[id] = true
	}
}
