package capability

import (
	"context"
	"fmt"
	"text/template"

	"github.com/safal938/nurse-sim/core"
	"github.com/safal938/nurse-sim/internal/util"
	"github.com/safal938/nurse-sim/model"
	"github.com/safal938/nurse-sim/transcript"
)

// Sampling temperatures per capability.
const (
	diagnoseTemperature  = 0.2
	evaluateTemperature  = 0.1
	rankTemperature      = 0.1
	adviseTemperature    = 0.2
	highlightTemperature = 0.0
	triggerTemperature   = 0.0
)

var (
	diagnoseTmpl  = util.MustTemplate("diagnose", "Patient:\n{{.PatientInfo}}\n\nTranscript:\n{{json .Transcript}}\n\nState:\n{{json .Prior}}")
	evaluateTmpl  = util.MustTemplate("evaluate", "Context:\n{{json .Transcript}}\n\nMaster Pool:\n{{json .Pool}}\n\nNew Candidates:\n{{json .Candidates}}")
	rankTmpl      = util.MustTemplate("rank", "Patient Profile:\n{{.PatientInfo}}\n\nHistory:\n{{json .Transcript}}\n\nDiagnosis:\n{{json .Diagnoses}}\n\nQuestions:\n{{json .Questions}}")
	adviseTmpl    = util.MustTemplate("advise", "Context:\n{{.PatientInfo}}\n\nHistory:\n{{json .Transcript}}\n\nQuestions:\n{{json .Questions}}")
	highlightTmpl = util.MustTemplate("highlight", "Context:\n{{json .Diagnoses}}\n\nAnswer:\n\"{{.Answer}}\"")
	triggerTmpl   = util.MustTemplate("trigger", "History:\n{{json .Transcript}}")
)

// Output shapes used to derive response schemas.
type (
	diagnosisOut struct {
		Diagnosis       string   `json:"diagnosis"`
		DID             string   `json:"did"`
		IndicatorsPoint []string `json:"indicators_point"`
	}
	diagnoseOut struct {
		DiagnosisList     []diagnosisOut `json:"diagnosis_list"`
		FollowUpQuestions []string       `json:"follow_up_questions"`
	}
	highlightOut struct {
		Level string `json:"level" enum:"danger,warning"`
		Text  string `json:"text"`
	}
)

var (
	diagnoseSchema  = util.CreateSchema(diagnoseOut{})
	evaluateSchema  = util.CreateSchema([]diagnosisOut{})
	rankSchema      = util.CreateSchema([]core.Ranking{})
	adviseSchema    = util.CreateSchema(Advice{})
	highlightSchema = util.CreateSchema([]highlightOut{})
	triggerSchema   = util.CreateSchema(TriggerResult{})
)

// Agent is a structured-output call against one model with a fixed system
// instruction. The typed capabilities below are thin wrappers around it.
type Agent struct {
	Model        model.Model
	Instructions string
	// PatientInfo is the static profile text injected into prompts that use it.
	PatientInfo string
}

func (a Agent) call(ctx context.Context, name string, tmpl *template.Template, data any, schema map[string]any, temp float64, out any) error {
	if a.Model == nil {
		return fmt.Errorf("%s: no model configured", name)
	}
	prompt, err := util.Execute(tmpl, data)
	if err != nil {
		return fmt.Errorf("%s: render prompt: %w", name, err)
	}
	req := model.Request{
		Instructions:   a.Instructions,
		Contents:       []core.Content{core.NewTextContent("user", prompt)},
		ResponseSchema: schema,
		SchemaName:     name,
		Temperature:    model.Float(temp),
	}
	if err := model.GenerateJSON(ctx, a.Model, req, out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ModelDiagnoser implements Diagnoser.
type ModelDiagnoser struct{ Agent }

// Diagnose implements Diagnoser.
func (d ModelDiagnoser) Diagnose(ctx context.Context, snap []transcript.Entry, prior []core.Diagnosis) (DiagnoseResult, error) {
	var res DiagnoseResult
	err := d.call(ctx, "diagnose", diagnoseTmpl, map[string]any{
		"PatientInfo": d.PatientInfo,
		"Transcript":  orEmpty(snap),
		"Prior":       orEmpty(prior),
	}, diagnoseSchema, diagnoseTemperature, &res)
	return res, err
}

// ModelEvaluator implements Evaluator.
type ModelEvaluator struct{ Agent }

// Merge implements Evaluator.
func (e ModelEvaluator) Merge(ctx context.Context, pool, candidates []core.Diagnosis, snap []transcript.Entry) ([]core.Diagnosis, error) {
	var merged []core.Diagnosis
	err := e.call(ctx, "evaluate", evaluateTmpl, map[string]any{
		"Transcript": orEmpty(snap),
		"Pool":       orEmpty(pool),
		"Candidates": orEmpty(candidates),
	}, evaluateSchema, evaluateTemperature, &merged)
	return merged, err
}

// ModelRanker implements Ranker.
type ModelRanker struct{ Agent }

// Rank implements Ranker.
func (r ModelRanker) Rank(ctx context.Context, snap []transcript.Entry, diagnoses []core.Diagnosis, questions []core.Question) ([]core.Ranking, error) {
	var ranks []core.Ranking
	err := r.call(ctx, "rank", rankTmpl, map[string]any{
		"PatientInfo": r.PatientInfo,
		"Transcript":  orEmpty(snap),
		"Diagnoses":   orEmpty(diagnoses),
		"Questions":   orEmpty(questions),
	}, rankSchema, rankTemperature, &ranks)
	return ranks, err
}

// ModelAdvisor implements Advisor.
type ModelAdvisor struct{ Agent }

// Advise implements Advisor.
func (a ModelAdvisor) Advise(ctx context.Context, snap []transcript.Entry, ranked []core.Question) (Advice, error) {
	var adv Advice
	err := a.call(ctx, "advise", adviseTmpl, map[string]any{
		"PatientInfo": a.PatientInfo,
		"Transcript":  orEmpty(snap),
		"Questions":   orEmpty(ranked),
	}, adviseSchema, adviseTemperature, &adv)
	return adv, err
}

// ModelHighlighter implements Highlighter.
type ModelHighlighter struct{ Agent }

// Highlight implements Highlighter.
func (h ModelHighlighter) Highlight(ctx context.Context, answer string, diagnoses []core.Diagnosis) ([]core.Highlight, error) {
	var hl []core.Highlight
	err := h.call(ctx, "highlight", highlightTmpl, map[string]any{
		"Answer":    answer,
		"Diagnoses": orEmpty(diagnoses),
	}, highlightSchema, highlightTemperature, &hl)
	return hl, err
}

// ModelTrigger implements Trigger.
type ModelTrigger struct{ Agent }

// ShouldRun implements Trigger.
func (t ModelTrigger) ShouldRun(ctx context.Context, snap []transcript.Entry) (TriggerResult, error) {
	var res TriggerResult
	err := t.call(ctx, "trigger", triggerTmpl, map[string]any{
		"Transcript": orEmpty(snap),
	}, triggerSchema, triggerTemperature, &res)
	return res, err
}

// Models selects the model used by each capability.
type Models struct {
	Diagnoser   model.Model
	Evaluator   model.Model
	Ranker      model.Model
	Advisor     model.Model
	Highlighter model.Model
	Trigger     model.Model
}

// NewModelSuite builds a Suite of model-backed capabilities for one patient.
func NewModelSuite(models Models, prompts Prompts, patientInfo string, optFns ...func(o *SuiteOptions)) *Suite {
	return NewSuite(Set{
		Diagnoser:   ModelDiagnoser{Agent{Model: models.Diagnoser, Instructions: prompts.Diagnoser, PatientInfo: patientInfo}},
		Evaluator:   ModelEvaluator{Agent{Model: models.Evaluator, Instructions: prompts.Evaluator}},
		Ranker:      ModelRanker{Agent{Model: models.Ranker, Instructions: prompts.Ranker, PatientInfo: patientInfo}},
		Advisor:     ModelAdvisor{Agent{Model: models.Advisor, Instructions: prompts.Advisor, PatientInfo: patientInfo}},
		Highlighter: ModelHighlighter{Agent{Model: models.Highlighter, Instructions: prompts.Highlighter}},
		Trigger:     ModelTrigger{Agent{Model: models.Trigger, Instructions: prompts.Trigger}},
	}, optFns...)
}
