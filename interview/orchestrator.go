package interview

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/logging"
	"github.com/safal938/nurse-sim/pool"
	"github.com/safal938/nurse-sim/transcript"
	"github.com/safal938/nurse-sim/voice"
)

// Conversation constants.
const (
	InitialInstruction  = "Introduce yourself and tell the patient you have patient data and will ask further questions for detailed health condition."
	InitialPatientWords = "Hello."
	NursePlaceholder    = "[The nurse waits]"
	PatientPlaceholder  = "[The patient nods]"
	SilentPatientWords  = "(Silent)"

	nurseInputFormat = "Patient said: '%s'\n[SUPERVISOR: %s]"
)

// Status messages sent to the client.
const (
	MsgInitializing = "Initializing Agents..."
	MsgInitError    = "Init Error, proceeding..."
	MsgStarting     = "Starting Assessment."
	msgLogicFormat  = "Logic: %s"
)

// State is the lifecycle phase of an Orchestrator.
type State int32

const (
	StateInitializing State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "INITIALIZING"
	case StateRunning:
		return "RUNNING"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// Record is the final state of a finished session.
type Record struct {
	SessionID  string
	PatientID  string
	Gender     string
	StartedAt  time.Time
	EndedAt    time.Time
	Cycles     int
	Transcript []transcript.Entry
	Diagnoses  []core.Diagnosis
	Questions  []core.Question
}

// Archiver persists finished sessions.
type Archiver interface {
	Archive(ctx context.Context, rec Record) error
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Conn         Connection
	Capabilities Capabilities
	Questions    *pool.QuestionPool
	Diagnoses    *pool.DiagnosisPool
	Dialer       voice.Dialer
	Nurse        voice.Persona
	Patient      voice.Persona
	// PatientInfo is the profile text analysed before the first turn.
	PatientInfo string
}

// Options configure an Orchestrator.
type Options struct {
	SessionID string
	PatientID string
	Gender    string

	PollInterval    time.Duration
	DeliveryTimeout time.Duration
	TurnGap         time.Duration
	AudioYield      time.Duration
	WakeOnAppend    bool
	TriggerGate     bool
	// MaxCycles ends the interview after this many cycles. Zero means no
	// limit.
	MaxCycles int

	Archiver Archiver
	Logger   logging.Logger
}

// cursor is the state carried from one cycle to the next.
type cursor struct {
	instruction string
	lastWords   string
	end         bool
	lastQID     string
}

// Orchestrator runs one interview session from handshake to teardown.
type Orchestrator struct {
	deps Deps
	opts Options

	log      *transcript.Log
	cache    *RankedCache
	relay    *Relay
	pipeline *Pipeline
	monitor  *Monitor
	turns    *TurnController

	state  atomic.Int32
	cycles atomic.Int64
	cur    cursor
}

// NewOrchestrator wires a session. Nil pools are replaced with empty ones.
func NewOrchestrator(deps Deps, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		SessionID:       core.NewID(),
		PollInterval:    DefaultPollInterval,
		DeliveryTimeout: DefaultDeliveryTimeout,
		TurnGap:         500 * time.Millisecond,
		AudioYield:      5 * time.Millisecond,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if deps.Questions == nil {
		deps.Questions = pool.NewQuestionPool(nil)
	}
	if deps.Diagnoses == nil {
		deps.Diagnoses = pool.NewDiagnosisPool()
	}

	o := &Orchestrator{deps: deps, opts: opts, log: transcript.New()}
	o.cache = NewRankedCache(deps.Questions.Recommended())
	o.relay = NewRelay(deps.Conn, opts.DeliveryTimeout, opts.Logger)
	o.pipeline = NewPipeline(deps.Capabilities, deps.Questions, deps.Diagnoses)
	o.monitor = NewMonitor(o.log, o.pipeline, deps.Capabilities, o.relay, o.cache, func(mo *MonitorOptions) {
		mo.PollInterval = opts.PollInterval
		mo.WakeOnAppend = opts.WakeOnAppend
		mo.TriggerGate = opts.TriggerGate
		mo.Logger = opts.Logger
	})
	o.turns = NewTurnController(deps.Conn, func(to *TurnOptions) {
		to.AudioYield = opts.AudioYield
		to.Logger = opts.Logger
	})
	o.cur = cursor{instruction: InitialInstruction, lastWords: InitialPatientWords}
	return o
}

// State returns the current lifecycle phase.
func (o *Orchestrator) State() State { return State(o.state.Load()) }

// Cycles returns the number of completed cycles.
func (o *Orchestrator) Cycles() int { return int(o.cycles.Load()) }

// Transcript returns a snapshot of the conversation so far.
func (o *Orchestrator) Transcript() []transcript.Entry { return o.log.Snapshot() }

// Monitor exposes the background enrichment monitor.
func (o *Orchestrator) Monitor() *Monitor { return o.monitor }

// Run executes the session until the interview ends, the client
// disconnects or ctx is cancelled. It returns an error only when a voice
// session cannot be opened.
func (o *Orchestrator) Run(ctx context.Context) (err error) {
	started := time.Now()
	log := o.opts.Logger
	o.state.Store(int32(StateInitializing))

	o.push(ctx, SystemEvent(MsgInitializing))
	o.initialize(ctx)

	o.monitor.Start(ctx)
	defer o.teardown(ctx, started)

	nurse, err := o.dial(ctx, o.deps.Nurse)
	if err != nil {
		return err
	}
	defer nurse.Close()
	patient, err := o.dial(ctx, o.deps.Patient)
	if err != nil {
		return err
	}
	defer patient.Close()

	o.push(ctx, SystemEvent(MsgStarting))
	o.state.Store(int32(StateRunning))
	log.Info("interview started", "session_id", o.opts.SessionID, "patient_id", o.opts.PatientID)

	for {
		if ctx.Err() != nil || o.deps.Conn.Disconnected() {
			break
		}
		if o.opts.MaxCycles > 0 && o.Cycles() >= o.opts.MaxCycles {
			log.Info("cycle limit reached", "cycles", o.Cycles())
			break
		}
		if !o.cycle(ctx, nurse, patient) {
			break
		}
	}
	return nil
}

func (o *Orchestrator) dial(ctx context.Context, p voice.Persona) (voice.Session, error) {
	if o.deps.Dialer == nil {
		return nil, fmt.Errorf("dial %s: %w", p.Role, voice.ErrNoSession)
	}
	s, err := o.deps.Dialer.Dial(ctx, p)
	if err != nil {
		o.opts.Logger.Error("voice session failed", "role", p.Role, "error", err)
		return nil, fmt.Errorf("dial %s: %w", p.Role, err)
	}
	return s, nil
}

// initialize runs one enrichment pass over the patient profile before any
// turn is taken.
func (o *Orchestrator) initialize(ctx context.Context) {
	snap := []transcript.Entry{{Timestamp: time.Now(), Speaker: core.SpeakerPatientInfo, Text: o.deps.PatientInfo}}

	enr, err := func() (enr Enrichment, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("init panicked: %v", r)
				logging.ErrorWithStack(o.opts.Logger, err, "initial enrichment panicked")
			}
		}()
		return o.pipeline.Run(ctx, snap)
	}()
	if err != nil {
		o.opts.Logger.Error("initial enrichment failed", "error", err)
		o.push(ctx, SystemEvent(MsgInitError))
		return
	}

	o.cache.Store(enr.Ranked)
	o.push(ctx, DiagnosisEvent(enr.Diagnoses))
	o.push(ctx, QuestionsEvent(enr.Questions))
}

// cycle runs one nurse turn, one patient turn and one advisor decision. It
// reports whether the loop should continue.
func (o *Orchestrator) cycle(ctx context.Context, nurse, patient voice.Session) (cont bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithStack(o.opts.Logger, fmt.Errorf("%v", r), "cycle panicked", "cycle", o.Cycles())
			cont = true
		}
	}()
	log := o.opts.Logger

	nres := o.turns.Run(ctx, Turn{
		Session: nurse,
		Speaker: core.SpeakerNurse,
		Input:   fmt.Sprintf(nurseInputFormat, o.cur.lastWords, o.cur.instruction),
	})
	nurseText := nres.Text
	if nres.Status != TurnSpoken {
		nurseText = NursePlaceholder
	}
	o.log.Append(core.SpeakerNurse, nurseText, nil)
	o.sleep(ctx, o.opts.TurnGap)
	o.push(ctx, QuestionsEvent(o.deps.Questions.List()))

	if o.deps.Conn.Disconnected() {
		return false
	}

	pres := o.turns.Run(ctx, Turn{
		Session:     patient,
		Speaker:     core.SpeakerPatient,
		Input:       nurseText,
		Highlighter: o.deps.Capabilities,
		Diagnoses:   o.deps.Diagnoses.ConsolidatedBasic(),
	})
	patientText := pres.Text
	if pres.Status == TurnSpoken {
		o.cur.lastWords = patientText
	} else {
		patientText = PatientPlaceholder
		o.cur.lastWords = SilentPatientWords
	}

	if o.cur.lastQID != "" {
		if err := o.deps.Questions.UpdateAnswer(o.cur.lastQID, patientText); err != nil {
			log.Warn("answer not recorded", "qid", o.cur.lastQID, "error", err)
		}
		o.push(ctx, QuestionsEvent(o.deps.Questions.List()))
		o.cur.lastQID = ""
	}

	o.log.Append(core.SpeakerPatient, patientText, pres.Highlights)
	o.sleep(ctx, o.opts.TurnGap)
	o.push(ctx, TurnMarkerEvent(MarkerFinishCycle))
	o.cycles.Add(1)

	if o.cur.end {
		log.Info("interview concluded", "cycles", o.Cycles())
		return false
	}

	adv, ok := o.deps.Capabilities.Advise(ctx, o.log.Snapshot(), o.cache.Load())
	if ok {
		if adv.QID != "" {
			if err := o.deps.Questions.UpdateStatus(adv.QID, core.QuestionAsked); err != nil {
				log.Warn("advisor chose unknown question", "qid", adv.QID, "error", err)
			} else {
				o.cur.lastQID = adv.QID
			}
		}
		o.push(ctx, SystemEvent(fmt.Sprintf(msgLogicFormat, adv.Reasoning)))
		if adv.Question != "" {
			o.cur.instruction = adv.Question
		}
		o.cur.end = adv.EndConversation
	}

	return !o.deps.Conn.Disconnected()
}

func (o *Orchestrator) teardown(ctx context.Context, started time.Time) {
	o.state.Store(int32(StateTerminated))

	// The run context may already be cancelled; the end marker and the
	// archive still get a bounded chance.
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	o.monitor.Stop()
	o.monitor.Wait()
	o.push(tctx, TurnMarkerEvent(MarkerEnd))

	o.opts.Logger.Info("interview ended",
		"session_id", o.opts.SessionID,
		"cycles", o.Cycles(),
		"entries", o.log.Len(),
		"relay_dropped", o.relay.Dropped(),
		"duration", time.Since(started))

	if o.opts.Archiver == nil {
		return
	}
	rec := Record{
		SessionID:  o.opts.SessionID,
		PatientID:  o.opts.PatientID,
		Gender:     o.opts.Gender,
		StartedAt:  started,
		EndedAt:    time.Now(),
		Cycles:     o.Cycles(),
		Transcript: o.log.Snapshot(),
		Diagnoses:  o.deps.Diagnoses.Consolidated(),
		Questions:  o.deps.Questions.List(),
	}
	if err := o.opts.Archiver.Archive(tctx, rec); err != nil {
		o.opts.Logger.Error("archive failed", "session_id", o.opts.SessionID, "error", err)
	}
}

// push sends on the main context. Delivery failures are logged and
// otherwise ignored; disconnection is observed at cycle boundaries.
func (o *Orchestrator) push(ctx context.Context, ev Event) {
	if o.deps.Conn.Disconnected() {
		return
	}
	if err := o.deps.Conn.Send(ctx, ev); err != nil && !errors.Is(err, ErrDisconnected) {
		o.opts.Logger.Debug("event not delivered", "type", ev.Type, "error", err)
	}
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
