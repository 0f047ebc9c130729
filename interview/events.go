package interview

import (
	"encoding/base64"
	"encoding/json"

	"github.com/safal938/nurse-sim/core"
)

// EventType is the "type" discriminator of an outbound message.
type EventType string

const (
	EventSystem          EventType = "system"
	EventDiagnosis       EventType = "diagnosis"
	EventQuestions       EventType = "questions"
	EventAudio           EventType = "audio"
	EventTextDelta       EventType = "text_delta"
	EventTurnComplete    EventType = "turn_complete"
	EventTranscriptFinal EventType = "transcript_final"
	EventTurn            EventType = "turn"
)

// Turn markers carried by EventTurn.
const (
	MarkerFinishCycle = "finish cycle"
	MarkerEnd         = "end"
)

// Event is one message pushed to the client. Only the fields relevant to
// Type are serialized.
type Event struct {
	Type       EventType
	Message    string
	ID         string
	Speaker    core.Speaker
	Text       string
	Audio      []byte
	Highlights []core.Highlight
	Diagnoses  []core.Diagnosis
	Questions  []core.Question
	Marker     string
}

// MarshalJSON implements json.Marshaler with the wire shape of each type.
func (e Event) MarshalJSON() ([]byte, error) {
	m := map[string]any{"type": e.Type}
	switch e.Type {
	case EventSystem:
		m["message"] = e.Message
	case EventDiagnosis:
		m["data"] = nonNil(e.Diagnoses)
	case EventQuestions:
		m["data"] = nonNil(e.Questions)
	case EventAudio:
		m["id"] = e.ID
		m["speaker"] = e.Speaker
		m["data"] = base64.StdEncoding.EncodeToString(e.Audio)
	case EventTextDelta:
		m["id"] = e.ID
		m["speaker"] = e.Speaker
		m["text"] = e.Text
	case EventTurnComplete:
		m["id"] = e.ID
		m["speaker"] = e.Speaker
	case EventTranscriptFinal:
		m["id"] = e.ID
		m["speaker"] = e.Speaker
		m["text"] = e.Text
		m["highlights"] = nonNil(e.Highlights)
	case EventTurn:
		m["data"] = e.Marker
	}
	return json.Marshal(m)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// SystemEvent creates a status message.
func SystemEvent(msg string) Event { return Event{Type: EventSystem, Message: msg} }

// DiagnosisEvent publishes the consolidated diagnosis list.
func DiagnosisEvent(list []core.Diagnosis) Event {
	return Event{Type: EventDiagnosis, Diagnoses: list}
}

// QuestionsEvent publishes the full question list.
func QuestionsEvent(list []core.Question) Event {
	return Event{Type: EventQuestions, Questions: list}
}

// AudioEvent carries one raw audio chunk of a turn.
func AudioEvent(id string, speaker core.Speaker, data []byte) Event {
	return Event{Type: EventAudio, ID: id, Speaker: speaker, Audio: data}
}

// TextDeltaEvent carries one incremental transcription fragment of a turn.
func TextDeltaEvent(id string, speaker core.Speaker, text string) Event {
	return Event{Type: EventTextDelta, ID: id, Speaker: speaker, Text: text}
}

// TurnCompleteEvent marks the end of a turn's stream.
func TurnCompleteEvent(id string, speaker core.Speaker) Event {
	return Event{Type: EventTurnComplete, ID: id, Speaker: speaker}
}

// TranscriptFinalEvent carries the finalized text of a turn.
func TranscriptFinalEvent(id string, speaker core.Speaker, text string, hl []core.Highlight) Event {
	return Event{Type: EventTranscriptFinal, ID: id, Speaker: speaker, Text: text, Highlights: hl}
}

// TurnMarkerEvent signals a cycle boundary or the end of the session.
func TurnMarkerEvent(marker string) Event { return Event{Type: EventTurn, Marker: marker} }
