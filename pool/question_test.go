package pool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safal938/nurse-sim/core"
)

func seed() []core.Question {
	return []core.Question{
		{QID: "00001", Content: "What brings you in today?"},
		{QID: "00002", Content: "Any allergies?", Status: core.QuestionAsked},
	}
}

func TestQuestionPool_SeedDefaultsToRecommended(t *testing.T) {
	p := NewQuestionPool(seed())
	qs := p.List()
	require.Len(t, qs, 2)
	assert.Equal(t, core.QuestionRecommended, qs[0].Status)
	assert.Equal(t, core.QuestionAsked, qs[1].Status)
}

func TestQuestionPool_AddFromTexts(t *testing.T) {
	p := NewQuestionPool(seed())
	added := p.AddFromTexts([]string{"Does the pain radiate?", "  ", "any allergies?", "Does the pain radiate?"})

	require.Len(t, added, 1)
	assert.Equal(t, "Does the pain radiate?", added[0].Content)
	assert.Equal(t, FollowUpRole, added[0].Role)
	assert.Equal(t, core.QuestionRecommended, added[0].Status)
	assert.Len(t, p.List(), 3)
}

func TestQuestionPool_RecommendedOrderedByRank(t *testing.T) {
	p := NewQuestionPool(nil)
	added := p.AddFromTexts([]string{"a?", "b?", "c?"})
	require.Len(t, added, 3)

	applied := p.UpdateRanking([]core.Ranking{{QID: added[2].QID, Rank: 1}, {QID: added[0].QID, Rank: 2}, {QID: "missing", Rank: 3}})
	assert.Equal(t, 2, applied)

	rec := p.Recommended()
	require.Len(t, rec, 3)
	assert.Equal(t, []string{"c?", "a?", "b?"}, []string{rec[0].Content, rec[1].Content, rec[2].Content})
}

func TestQuestionPool_StatusAndAnswer(t *testing.T) {
	p := NewQuestionPool(seed())

	require.NoError(t, p.UpdateStatus("00001", core.QuestionAsked))
	require.NoError(t, p.UpdateAnswer("00001", "Chest pain"))
	assert.Empty(t, p.Recommended())

	q := p.List()[0]
	assert.Equal(t, "Chest pain", q.Answer)

	err := p.UpdateStatus("nope", core.QuestionAsked)
	assert.ErrorIs(t, err, ErrUnknownQuestion)
	assert.ErrorIs(t, p.UpdateAnswer("nope", "x"), ErrUnknownQuestion)
}

func TestQuestionPool_ListIsCopy(t *testing.T) {
	p := NewQuestionPool(seed())
	qs := p.List()
	qs[0].Content = "changed"
	assert.Equal(t, "What brings you in today?", p.List()[0].Content)
}

func TestLoadQuestionBank(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"qid":"00001","content":"Name?","rank":1}]`), 0o600))

	qs, err := LoadQuestionBank(path)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "Name?", qs[0].Content)

	require.NoError(t, os.WriteFile(path, []byte(`[{"content":"no id"}]`), 0o600))
	_, err = LoadQuestionBank(path)
	assert.Error(t, err)

	_, err = LoadQuestionBank(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
