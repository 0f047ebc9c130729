package interview

import (
	"context"

	"github.com/safal938/nurse-sim/capability"
	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/pool"
	"github.com/safal938/nurse-sim/transcript"
)

// Capabilities is the set of external reasoning calls the interview
// depends on. Implementations substitute their own fallbacks and never
// fail; *capability.Suite is the production implementation.
type Capabilities interface {
	Diagnose(ctx context.Context, snap []transcript.Entry, prior []core.Diagnosis) capability.DiagnoseResult
	Merge(ctx context.Context, pool, candidates []core.Diagnosis, snap []transcript.Entry) []core.Diagnosis
	Rank(ctx context.Context, snap []transcript.Entry, diagnoses []core.Diagnosis, questions []core.Question) []core.Ranking
	Advise(ctx context.Context, snap []transcript.Entry, ranked []core.Question) (capability.Advice, bool)
	Highlight(ctx context.Context, answer string, diagnoses []core.Diagnosis) []core.Highlight
	ShouldRun(ctx context.Context, snap []transcript.Entry) capability.TriggerResult
}

var _ Capabilities = (*capability.Suite)(nil)

// Enrichment is the result of one pipeline pass.
type Enrichment struct {
	Diagnoses []core.Diagnosis
	Questions []core.Question
	Ranked    []core.Question
}

// Pipeline refreshes the diagnosis and question pools from a transcript
// snapshot.
type Pipeline struct {
	caps      Capabilities
	questions *pool.QuestionPool
	diagnoses *pool.DiagnosisPool
}

// NewPipeline binds the pools to a capability set.
func NewPipeline(caps Capabilities, questions *pool.QuestionPool, diagnoses *pool.DiagnosisPool) *Pipeline {
	return &Pipeline{caps: caps, questions: questions, diagnoses: diagnoses}
}

// Run performs diagnose, merge, question intake and ranking in order. It
// returns ctx's error if ctx ends between stages; a stage already in
// flight is allowed to finish.
func (p *Pipeline) Run(ctx context.Context, snap []transcript.Entry) (Enrichment, error) {
	res := p.caps.Diagnose(ctx, snap, p.diagnoses.Basic())
	p.diagnoses.UpdateCandidates(res.Diagnoses)
	if err := ctx.Err(); err != nil {
		return Enrichment{}, err
	}

	merged := p.caps.Merge(ctx, p.diagnoses.ConsolidatedBasic(), res.Diagnoses, snap)
	p.diagnoses.SetConsolidated(merged)
	p.questions.AddFromTexts(res.FollowUps)
	if err := ctx.Err(); err != nil {
		return Enrichment{}, err
	}

	consolidated := p.diagnoses.Consolidated()
	ranks := p.caps.Rank(ctx, snap, consolidated, p.questions.Recommended())
	p.questions.UpdateRanking(ranks)

	return Enrichment{
		Diagnoses: consolidated,
		Questions: p.questions.List(),
		Ranked:    p.questions.Recommended(),
	}, nil
}
