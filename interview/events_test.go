package interview

import (
	"encoding/json"
	"testing"

	"github.com/safal938/nurse-sim/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"system", SystemEvent("Starting Assessment."), `{"type":"system","message":"Starting Assessment."}`},
		{"audio", AudioEvent("t1", core.SpeakerNurse, []byte("hi")), `{"type":"audio","id":"t1","speaker":"NURSE","data":"aGk="}`},
		{"text delta", TextDeltaEvent("t1", core.SpeakerPatient, "I feel"), `{"type":"text_delta","id":"t1","speaker":"PATIENT","text":"I feel"}`},
		{"turn complete", TurnCompleteEvent("t1", core.SpeakerPatient), `{"type":"turn_complete","id":"t1","speaker":"PATIENT"}`},
		{"transcript final without highlights", TranscriptFinalEvent("t1", core.SpeakerNurse, "Hello.", nil),
			`{"type":"transcript_final","id":"t1","speaker":"NURSE","text":"Hello.","highlights":[]}`},
		{"transcript final", TranscriptFinalEvent("t2", core.SpeakerPatient, "My skin is yellow.",
			[]core.Highlight{{Level: core.HighlightDanger, Text: "skin is yellow"}}),
			`{"type":"transcript_final","id":"t2","speaker":"PATIENT","text":"My skin is yellow.","highlights":[{"level":"danger","text":"skin is yellow"}]}`},
		{"finish cycle", TurnMarkerEvent(MarkerFinishCycle), `{"type":"turn","data":"finish cycle"}`},
		{"end", TurnMarkerEvent(MarkerEnd), `{"type":"turn","data":"end"}`},
		{"empty diagnosis", DiagnosisEvent(nil), `{"type":"diagnosis","data":[]}`},
		{"empty questions", QuestionsEvent(nil), `{"type":"questions","data":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.ev)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}

func TestEvent_MarshalDiagnosis(t *testing.T) {
	ev := DiagnosisEvent([]core.Diagnosis{{ID: "d1", Label: "Hepatitis", Indicators: []string{"jaundice"}, IndicatorsCount: 1, Probability: "Low", Rank: 1}})
	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var got struct {
		Type string           `json:"type"`
		Data []core.Diagnosis `json:"data"`
	}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "diagnosis", got.Type)
	require.Len(t, got.Data, 1)
	assert.Equal(t, "Hepatitis", got.Data[0].Label)
	assert.Equal(t, 1, got.Data[0].Rank)
}
