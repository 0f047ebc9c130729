package pool

import (
	"sync"

	"github.com/safal938/nurse-sim/core"
)

// Probability buckets derived from the number of supporting indicators.
const (
	ProbabilityLow    = "Low"
	ProbabilityMedium = "Medium"
	ProbabilityHigh   = "High"
)

// DiagnosisPool keeps the latest candidate list from the diagnose step and
// the consolidated list produced by the merge step.
type DiagnosisPool struct {
	mu           sync.RWMutex
	candidates   []core.Diagnosis
	consolidated []core.Diagnosis
}

// NewDiagnosisPool creates an empty pool.
func NewDiagnosisPool() *DiagnosisPool { return &DiagnosisPool{} }

// Basic returns the candidate list reduced to id, label and indicators.
func (p *DiagnosisPool) Basic() []core.Diagnosis {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return basicList(p.candidates)
}

// Consolidated returns the merged list including derived rank and probability.
func (p *DiagnosisPool) Consolidated() []core.Diagnosis {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]core.Diagnosis, len(p.consolidated))
	for i, d := range p.consolidated {
		d.Indicators = append([]string(nil), d.Indicators...)
		out[i] = d
	}
	return out
}

// ConsolidatedBasic returns the merged list reduced to basic fields.
func (p *DiagnosisPool) ConsolidatedBasic() []core.Diagnosis {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return basicList(p.consolidated)
}

// UpdateCandidates replaces the candidate list.
func (p *DiagnosisPool) UpdateCandidates(list []core.Diagnosis) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.candidates = basicList(list)
}

// SetConsolidated replaces the consolidated list. Entries sharing an id are
// folded into the first occurrence with their indicators unioned; ranks
// follow list order.
func (p *DiagnosisPool) SetConsolidated(list []core.Diagnosis) {
	var out []core.Diagnosis
	pos := map[string]int{}
	for _, d := range list {
		d = d.Basic()
		key := d.ID
		if key == "" {
			key = d.Label
		}
		if i, ok := pos[key]; ok {
			out[i].Indicators = unionStrings(out[i].Indicators, d.Indicators)
			continue
		}
		pos[key] = len(out)
		out = append(out, d)
	}
	for i := range out {
		out[i].Rank = i + 1
		out[i].IndicatorsCount = len(out[i].Indicators)
		out[i].Probability = probability(out[i].IndicatorsCount)
	}

	p.mu.Lock()
	p.consolidated = out
	p.mu.Unlock()
}

func probability(indicators int) string {
	switch {
	case indicators >= 4:
		return ProbabilityHigh
	case indicators >= 2:
		return ProbabilityMedium
	default:
		return ProbabilityLow
	}
}

func basicList(in []core.Diagnosis) []core.Diagnosis {
	out := make([]core.Diagnosis, len(in))
	for i, d := range in {
		out[i] = d.Basic()
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			a = append(a, s)
			seen[s] = true
		}
	}
	return a
}
