// Package capability implements the clinical reasoning capabilities consumed
// by the interview engine: diagnose, merge, rank, advise, highlight and the
// diagnosis trigger check. Each is an interface with a model-backed
// implementation; Suite wraps them with their fallback results.
package capability

import (
	"context"

	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/transcript"
)

// DiagnoseResult is the output of the diagnose step.
type DiagnoseResult struct {
	Diagnoses []core.Diagnosis `json:"diagnosis_list"`
	FollowUps []string         `json:"follow_up_questions"`
}

// Advice is the advisor's decision for the next nurse turn.
type Advice struct {
	Question        string `json:"question"`
	QID             string `json:"qid"`
	EndConversation bool   `json:"end_conversation"`
	Reasoning       string `json:"reasoning"`
}

// TriggerResult tells whether new transcript content warrants a diagnosis run.
type TriggerResult struct {
	ShouldRun bool   `json:"should_run"`
	Reason    string `json:"reason"`
}

// Diagnoser proposes diagnoses and follow-up questions from a transcript.
type Diagnoser interface {
	Diagnose(ctx context.Context, snap []transcript.Entry, prior []core.Diagnosis) (DiagnoseResult, error)
}

// Evaluator merges new candidates into the consolidated pool.
type Evaluator interface {
	Merge(ctx context.Context, pool, candidates []core.Diagnosis, snap []transcript.Entry) ([]core.Diagnosis, error)
}

// Ranker orders questions by priority.
type Ranker interface {
	Rank(ctx context.Context, snap []transcript.Entry, diagnoses []core.Diagnosis, questions []core.Question) ([]core.Ranking, error)
}

// Advisor decides the nurse's next instruction.
type Advisor interface {
	Advise(ctx context.Context, snap []transcript.Entry, ranked []core.Question) (Advice, error)
}

// Highlighter marks clinically relevant spans in a patient answer.
type Highlighter interface {
	Highlight(ctx context.Context, answer string, diagnoses []core.Diagnosis) ([]core.Highlight, error)
}

// Trigger decides whether the diagnosis pipeline should run.
type Trigger interface {
	ShouldRun(ctx context.Context, snap []transcript.Entry) (TriggerResult, error)
}

// DiagnoseFunc adapts a function to Diagnoser.
type DiagnoseFunc func(ctx context.Context, snap []transcript.Entry, prior []core.Diagnosis) (DiagnoseResult, error)

// Diagnose implements Diagnoser.
func (f DiagnoseFunc) Diagnose(ctx context.Context, snap []transcript.Entry, prior []core.Diagnosis) (DiagnoseResult, error) {
	return f(ctx, snap, prior)
}

// MergeFunc adapts a function to Evaluator.
type MergeFunc func(ctx context.Context, pool, candidates []core.Diagnosis, snap []transcript.Entry) ([]core.Diagnosis, error)

// Merge implements Evaluator.
func (f MergeFunc) Merge(ctx context.Context, pool, candidates []core.Diagnosis, snap []transcript.Entry) ([]core.Diagnosis, error) {
	return f(ctx, pool, candidates, snap)
}

// RankFunc adapts a function to Ranker.
type RankFunc func(ctx context.Context, snap []transcript.Entry, diagnoses []core.Diagnosis, questions []core.Question) ([]core.Ranking, error)

// Rank implements Ranker.
func (f RankFunc) Rank(ctx context.Context, snap []transcript.Entry, diagnoses []core.Diagnosis, questions []core.Question) ([]core.Ranking, error) {
	return f(ctx, snap, diagnoses, questions)
}

// AdviseFunc adapts a function to Advisor.
type AdviseFunc func(ctx context.Context, snap []transcript.Entry, ranked []core.Question) (Advice, error)

// Advise implements Advisor.
func (f AdviseFunc) Advise(ctx context.Context, snap []transcript.Entry, ranked []core.Question) (Advice, error) {
	return f(ctx, snap, ranked)
}

// HighlightFunc adapts a function to Highlighter.
type HighlightFunc func(ctx context.Context, answer string, diagnoses []core.Diagnosis) ([]core.Highlight, error)

// Highlight implements Highlighter.
func (f HighlightFunc) Highlight(ctx context.Context, answer string, diagnoses []core.Diagnosis) ([]core.Highlight, error) {
	return f(ctx, answer, diagnoses)
}

// TriggerFunc adapts a function to Trigger.
type TriggerFunc func(ctx context.Context, snap []transcript.Entry) (TriggerResult, error)

// ShouldRun implements Trigger.
func (f TriggerFunc) ShouldRun(ctx context.Context, snap []transcript.Entry) (TriggerResult, error) {
	return f(ctx, snap)
}
