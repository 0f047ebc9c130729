package capability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/logging"
	"github.com/safal938/nurse-sim/transcript"
)

// MinHighlightLength is the shortest answer worth highlighting.
const MinHighlightLength = 3

// Fallback texts returned by Suite.Advise on failure.
const (
	FallbackInstruction = "Continue."
	FallbackReasoning   = "Error"
)

// Set groups the capability implementations. Nil members are treated as
// unavailable and always produce their fallback.
type Set struct {
	Diagnoser   Diagnoser
	Evaluator   Evaluator
	Ranker      Ranker
	Advisor     Advisor
	Highlighter Highlighter
	Trigger     Trigger
}

// SuiteOptions configure a Suite.
type SuiteOptions struct {
	Logger logging.Logger
	// Timeout bounds each capability call. Calls are detached from the
	// caller's cancellation so a session shutdown never aborts one midway.
	Timeout time.Duration
}

// Suite invokes capabilities and substitutes their declared fallback on
// failure. Its methods never return errors.
type Suite struct {
	set  Set
	opts SuiteOptions
}

// NewSuite wraps a capability set.
func NewSuite(set Set, optFns ...func(o *SuiteOptions)) *Suite {
	opts := SuiteOptions{Logger: logging.NoOpLogger{}, Timeout: 60 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Suite{set: set, opts: opts}
}

// invoke runs fn detached from ctx cancellation with the per-call timeout,
// converting panics to errors and logging the outcome.
func (s *Suite) invoke(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	ctx = context.WithoutCancel(ctx)
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", name, r)
			logging.ErrorWithStack(s.opts.Logger, err, "capability panicked", "capability", name)
		}
		logging.LogCapabilityCall(s.opts.Logger, name, time.Since(start), err)
	}()
	return fn(ctx)
}

// Diagnose returns new candidates and follow-up questions. On failure the
// prior list is returned unchanged with no follow-ups.
func (s *Suite) Diagnose(ctx context.Context, snap []transcript.Entry, prior []core.Diagnosis) DiagnoseResult {
	fallback := DiagnoseResult{Diagnoses: prior}
	if s.set.Diagnoser == nil {
		return fallback
	}
	var res DiagnoseResult
	err := s.invoke(ctx, "diagnose", func(ctx context.Context) error {
		var err error
		res, err = s.set.Diagnoser.Diagnose(ctx, snap, prior)
		return err
	})
	if err != nil {
		return fallback
	}
	return res
}

// Merge returns the merged diagnosis list. On failure the pool and the
// candidates are concatenated uncombined.
func (s *Suite) Merge(ctx context.Context, pool, candidates []core.Diagnosis, snap []transcript.Entry) []core.Diagnosis {
	fallback := append(append([]core.Diagnosis(nil), pool...), candidates...)
	if s.set.Evaluator == nil {
		return fallback
	}
	var merged []core.Diagnosis
	err := s.invoke(ctx, "evaluate", func(ctx context.Context) error {
		var err error
		merged, err = s.set.Evaluator.Merge(ctx, pool, candidates, snap)
		return err
	})
	if err != nil {
		return fallback
	}
	return merged
}

// Rank returns question priorities. On failure questions keep their order.
func (s *Suite) Rank(ctx context.Context, snap []transcript.Entry, diagnoses []core.Diagnosis, questions []core.Question) []core.Ranking {
	if s.set.Ranker == nil {
		return IdentityRanking(questions)
	}
	var ranks []core.Ranking
	err := s.invoke(ctx, "rank", func(ctx context.Context) error {
		var err error
		ranks, err = s.set.Ranker.Rank(ctx, snap, diagnoses, questions)
		return err
	})
	if err != nil {
		return IdentityRanking(questions)
	}
	return ranks
}

// IdentityRanking ranks questions in their given order starting at 1.
func IdentityRanking(questions []core.Question) []core.Ranking {
	out := make([]core.Ranking, len(questions))
	for i, q := range questions {
		out[i] = core.Ranking{Rank: i + 1, QID: q.QID}
	}
	return out
}

// Advise returns the advisor's decision. ok is false when the fallback
// advice was substituted, letting the caller keep its previous instruction.
func (s *Suite) Advise(ctx context.Context, snap []transcript.Entry, ranked []core.Question) (adv Advice, ok bool) {
	fallback := Advice{Question: FallbackInstruction, Reasoning: FallbackReasoning}
	if s.set.Advisor == nil {
		return fallback, false
	}
	err := s.invoke(ctx, "advise", func(ctx context.Context) error {
		var err error
		adv, err = s.set.Advisor.Advise(ctx, snap, ranked)
		return err
	})
	if err != nil {
		return fallback, false
	}
	return adv, true
}

// Highlight returns annotations for a patient answer. Answers shorter than
// MinHighlightLength are not sent; failures yield no annotations. Entries
// with an unknown level or empty text are dropped.
func (s *Suite) Highlight(ctx context.Context, answer string, diagnoses []core.Diagnosis) []core.Highlight {
	answer = strings.TrimSpace(answer)
	if s.set.Highlighter == nil || len(answer) < MinHighlightLength {
		return []core.Highlight{}
	}
	var hl []core.Highlight
	err := s.invoke(ctx, "highlight", func(ctx context.Context) error {
		var err error
		hl, err = s.set.Highlighter.Highlight(ctx, answer, diagnoses)
		return err
	})
	if err != nil {
		return []core.Highlight{}
	}
	out := make([]core.Highlight, 0, len(hl))
	for _, h := range hl {
		if (h.Level == core.HighlightDanger || h.Level == core.HighlightWarning) && h.Text != "" {
			out = append(out, h)
		}
	}
	return out
}

// ShouldRun reports whether the diagnosis pipeline should run for snap. An
// empty transcript never triggers; failures fail open.
func (s *Suite) ShouldRun(ctx context.Context, snap []transcript.Entry) TriggerResult {
	if len(snap) == 0 {
		return TriggerResult{ShouldRun: false, Reason: "Empty"}
	}
	if s.set.Trigger == nil {
		return TriggerResult{ShouldRun: true, Reason: "Fallback"}
	}
	var res TriggerResult
	err := s.invoke(ctx, "trigger", func(ctx context.Context) error {
		var err error
		res, err = s.set.Trigger.ShouldRun(ctx, snap)
		return err
	})
	if err != nil {
		return TriggerResult{ShouldRun: true, Reason: "Fallback"}
	}
	return res
}
