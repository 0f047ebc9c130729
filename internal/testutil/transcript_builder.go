package testutil

import (
	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/transcript"
)

// TranscriptBuilder helps construct transcript logs with fluent chaining.
// Example:
//
//	log := NewTranscriptBuilder().Nurse("How are you?").Patient("Tired.").Build()
type TranscriptBuilder struct {
	entries []transcript.Entry
}

// NewTranscriptBuilder creates an empty builder.
func NewTranscriptBuilder() *TranscriptBuilder { return &TranscriptBuilder{} }

// Nurse appends a nurse utterance (chainable).
func (b *TranscriptBuilder) Nurse(text string) *TranscriptBuilder {
	return b.add(core.SpeakerNurse, text, nil)
}

// Patient appends a patient utterance with optional highlights (chainable).
func (b *TranscriptBuilder) Patient(text string, hl ...core.Highlight) *TranscriptBuilder {
	return b.add(core.SpeakerPatient, text, hl)
}

// PatientInfo appends a profile pseudo entry (chainable).
func (b *TranscriptBuilder) PatientInfo(text string) *TranscriptBuilder {
	return b.add(core.SpeakerPatientInfo, text, nil)
}

func (b *TranscriptBuilder) add(s core.Speaker, text string, hl []core.Highlight) *TranscriptBuilder {
	b.entries = append(b.entries, transcript.Entry{Speaker: s, Text: text, Highlights: hl})
	return b
}

// Build appends every entry to a new log.
func (b *TranscriptBuilder) Build() *transcript.Log {
	l := transcript.New()
	for _, e := range b.entries {
		l.Append(e.Speaker, e.Text, e.Highlights)
	}
	return l
}

// Entries returns the entries of a freshly built log.
func (b *TranscriptBuilder) Entries() []transcript.Entry { return b.Build().Snapshot() }
