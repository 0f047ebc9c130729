package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safal938/nurse-sim/core"
)

func TestDiagnosisPool_Candidates(t *testing.T) {
	p := NewDiagnosisPool()
	assert.Empty(t, p.Basic())

	p.UpdateCandidates([]core.Diagnosis{{ID: "D1", Label: "Angina", Indicators: []string{"chest pain"}, Rank: 9}})
	basic := p.Basic()
	require.Len(t, basic, 1)
	assert.Zero(t, basic[0].Rank)
}

func TestDiagnosisPool_SetConsolidated(t *testing.T) {
	p := NewDiagnosisPool()
	p.SetConsolidated([]core.Diagnosis{
		{ID: "D1", Label: "Angina", Indicators: []string{"chest pain", "exertion"}},
		{ID: "D2", Label: "GERD", Indicators: []string{"burning"}},
		{ID: "D1", Label: "Angina", Indicators: []string{"exertion", "sweating", "age"}},
	})

	got := p.Consolidated()
	require.Len(t, got, 2)
	assert.Equal(t, "D1", got[0].ID)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, 4, got[0].IndicatorsCount)
	assert.Equal(t, ProbabilityHigh, got[0].Probability)
	assert.Equal(t, 2, got[1].Rank)
	assert.Equal(t, ProbabilityLow, got[1].Probability)

	basic := p.ConsolidatedBasic()
	require.Len(t, basic, 2)
	assert.Empty(t, basic[0].Probability)
}

func TestDiagnosisPool_ConsolidatedIsCopy(t *testing.T) {
	p := NewDiagnosisPool()
	p.SetConsolidated([]core.Diagnosis{{ID: "D1", Label: "Angina", Indicators: []string{"a"}}})
	got := p.Consolidated()
	got[0].Indicators[0] = "changed"
	assert.Equal(t, "a", p.Consolidated()[0].Indicators[0])
}
