package core

// Speaker tags the author of a transcript entry.
type Speaker string

const (
	// SpeakerNurse marks utterances of the interviewing nurse agent.
	SpeakerNurse Speaker = "NURSE"
	// SpeakerPatient marks utterances of the simulated patient.
	SpeakerPatient Speaker = "PATIENT"
	// SpeakerPatientInfo marks static profile text injected as a pseudo entry.
	SpeakerPatientInfo Speaker = "PATIENT_INFO"
)

// Valid reports whether s is one of the known speaker tags.
func (s Speaker) Valid() bool {
	switch s {
	case SpeakerNurse, SpeakerPatient, SpeakerPatientInfo:
		return true
	}
	return false
}

// HighlightLevel is the severity of a highlighted span in a patient answer.
type HighlightLevel string

const (
	HighlightDanger  HighlightLevel = "danger"
	HighlightWarning HighlightLevel = "warning"
)

// Highlight annotates a clinically relevant span of a patient utterance.
type Highlight struct {
	Level HighlightLevel `json:"level" description:"severity, one of danger or warning"`
	Text  string         `json:"text" description:"exact span quoted from the answer"`
}

// Diagnosis is a hypothesis tracked by the diagnosis pool.
//
// ID, Label and Indicators are produced by the diagnose capability; the
// remaining fields are derived by the pool when it consolidates.
type Diagnosis struct {
	ID              string   `json:"did"`
	Label           string   `json:"diagnosis"`
	Indicators      []string `json:"indicators_point"`
	IndicatorsCount int      `json:"indicators_count,omitempty"`
	Probability     string   `json:"probability,omitempty"`
	Rank            int      `json:"rank,omitempty"`
}

// Basic returns the diagnosis reduced to the fields a capability consumes.
func (d Diagnosis) Basic() Diagnosis {
	return Diagnosis{ID: d.ID, Label: d.Label, Indicators: append([]string(nil), d.Indicators...)}
}

// QuestionStatus is the lifecycle state of a question record.
type QuestionStatus string

const (
	QuestionPending     QuestionStatus = "pending"
	QuestionRecommended QuestionStatus = "recommended"
	QuestionAsked       QuestionStatus = "asked"
)

// Question is a record in the question pool.
type Question struct {
	QID     string         `json:"qid"`
	Role    string         `json:"role,omitempty"`
	Content string         `json:"content"`
	Score   float64        `json:"score"`
	Rank    int            `json:"rank"`
	Status  QuestionStatus `json:"status"`
	Answer  string         `json:"answer,omitempty"`
}

// Ranking assigns a priority to a question id. Lower ranks are asked first.
type Ranking struct {
	Rank int    `json:"rank"`
	QID  string `json:"qid"`
}
