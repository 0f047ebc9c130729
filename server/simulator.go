package server

import (
	"context"
	"errors"
	"time"

	"github.com/safal938/nurse-sim/capability"
	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/interview"
	"github.com/safal938/nurse-sim/logging"
	"github.com/safal938/nurse-sim/pool"
	"github.com/safal938/nurse-sim/storage"
	"github.com/safal938/nurse-sim/voice"
)

// SessionSettings are the per-session timings and switches.
type SessionSettings struct {
	PollInterval      time.Duration
	DeliveryTimeout   time.Duration
	TurnGap           time.Duration
	AudioYield        time.Duration
	CapabilityTimeout time.Duration
	TriggerGate       bool
	WakeOnAppend      bool
	MaxCycles         int
}

// Simulator is the production SessionFactory. Every session gets fresh
// pools seeded from the question bank and capabilities bound to the
// patient's profile.
type Simulator struct {
	Profiles     storage.Profiles
	Prompts      capability.Prompts
	Models       capability.Models
	QuestionBank []core.Question
	Dialer       voice.Dialer
	NurseVoice   string
	PatientVoice string
	Settings     SessionSettings
	Archiver     interview.Archiver
	Logger       *logging.StructuredLogger
}

var _ SessionFactory = (*Simulator)(nil)

// NewSession implements SessionFactory.
func (s *Simulator) NewSession(ctx context.Context, req StartRequest, conn interview.Connection) (Runner, error) {
	if s.Dialer == nil {
		return nil, errors.New("simulator has no voice dialer")
	}
	sessionID := core.NewID()
	var log logging.Logger = logging.NoOpLogger{}
	if s.Logger != nil {
		log = s.Logger.WithSession(sessionID, req.PatientID)
	}

	profiles := s.Profiles
	profiles.Logger = log
	patientSystem := profiles.Text(ctx, req.PatientID, storage.PatientSystemFile)
	patientInfo := profiles.Text(ctx, req.PatientID, storage.PatientInfoFile)

	suite := capability.NewModelSuite(s.Models, s.Prompts, patientInfo, func(o *capability.SuiteOptions) {
		o.Logger = log
		if s.Settings.CapabilityTimeout > 0 {
			o.Timeout = s.Settings.CapabilityTimeout
		}
	})

	deps := interview.Deps{
		Conn:         conn,
		Capabilities: suite,
		Questions:    pool.NewQuestionPool(s.QuestionBank),
		Diagnoses:    pool.NewDiagnosisPool(),
		Dialer:       s.Dialer,
		Nurse:        voice.Persona{Role: core.SpeakerNurse, Instructions: s.Prompts.Nurse, Voice: s.NurseVoice},
		Patient:      voice.Persona{Role: core.SpeakerPatient, Instructions: patientSystem, Voice: s.PatientVoice},
		PatientInfo:  patientInfo,
	}
	return interview.NewOrchestrator(deps, func(o *interview.Options) {
		o.SessionID = sessionID
		o.PatientID = req.PatientID
		o.Gender = req.Gender
		// Zero settings keep the orchestrator defaults.
		setIfPositive(&o.PollInterval, s.Settings.PollInterval)
		setIfPositive(&o.DeliveryTimeout, s.Settings.DeliveryTimeout)
		setIfPositive(&o.TurnGap, s.Settings.TurnGap)
		setIfPositive(&o.AudioYield, s.Settings.AudioYield)
		o.TriggerGate = s.Settings.TriggerGate
		o.WakeOnAppend = s.Settings.WakeOnAppend
		o.MaxCycles = s.Settings.MaxCycles
		o.Archiver = s.Archiver
		o.Logger = log
	}), nil
}

func setIfPositive(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}
