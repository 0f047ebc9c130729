package capability

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Prompts holds the system instructions of every agent.
type Prompts struct {
	Nurse       string
	Diagnoser   string
	Evaluator   string
	Ranker      string
	Advisor     string
	Highlighter string
	Trigger     string
}

// DefaultPrompts returns the built-in instructions used when prompt files are absent.
func DefaultPrompts() Prompts {
	return Prompts{
		Nurse:       "You are a nurse.",
		Diagnoser:   "Diagnose patient.",
		Evaluator:   "Merge diagnoses.",
		Ranker:      "Rank by priority.",
		Advisor:     "Advise nurse.",
		Highlighter: "Extract keywords.",
		Trigger:     "Return true if new info.",
	}
}

// LoadPrompts reads <dir>/<name>.md for every agent. Missing files keep the
// default instruction; other read errors are returned.
func LoadPrompts(dir string) (Prompts, error) {
	p := DefaultPrompts()
	files := []struct {
		name string
		dst  *string
	}{
		{"nurse.md", &p.Nurse},
		{"diagnoser.md", &p.Diagnoser},
		{"diagnosis_eval.md", &p.Evaluator},
		{"q_ranker.md", &p.Ranker},
		{"advisor_agent.md", &p.Advisor},
		{"highlight_agent.md", &p.Highlighter},
		{"diagnosis_trigger.md", &p.Trigger},
	}
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return p, fmt.Errorf("read prompt %s: %w", f.name, err)
		}
		*f.dst = string(data)
	}
	return p, nil
}
