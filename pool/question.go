package pool

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/safal938/nurse-sim/core"
)

// ErrUnknownQuestion is returned when an update targets a qid not in the pool.
var ErrUnknownQuestion = errors.New("unknown question")

// FollowUpRole is the role assigned to questions surfaced during the interview.
const FollowUpRole = "follow_up"

// QuestionPool stores question records in insertion order.
type QuestionPool struct {
	mu        sync.RWMutex
	questions []core.Question
	index     map[string]int
	seq       int
}

// NewQuestionPool creates a pool seeded with a copy of seed. Seed records
// without a status start as recommended.
func NewQuestionPool(seed []core.Question) *QuestionPool {
	p := &QuestionPool{index: map[string]int{}}
	for _, q := range seed {
		if q.Status == "" {
			q.Status = core.QuestionRecommended
		}
		p.insert(q)
	}
	return p
}

func (p *QuestionPool) insert(q core.Question) {
	p.index[q.QID] = len(p.questions)
	p.questions = append(p.questions, q)
}

func (p *QuestionPool) hasContent(text string) bool {
	for _, q := range p.questions {
		if strings.EqualFold(strings.TrimSpace(q.Content), text) {
			return true
		}
	}
	return false
}

func (p *QuestionPool) nextQID() string {
	for {
		p.seq++
		qid := fmt.Sprintf("q%04d", p.seq)
		if _, exists := p.index[qid]; !exists {
			return qid
		}
	}
}

// AddFromTexts appends a recommended question per new text and returns the
// added records. Blank texts and texts already in the pool are skipped.
func (p *QuestionPool) AddFromTexts(texts []string) []core.Question {
	p.mu.Lock()
	defer p.mu.Unlock()

	var added []core.Question
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" || p.hasContent(t) {
			continue
		}
		q := core.Question{
			QID:     p.nextQID(),
			Role:    FollowUpRole,
			Content: t,
			Status:  core.QuestionRecommended,
		}
		p.insert(q)
		added = append(added, q)
	}
	return added
}

// List returns every question in insertion order.
func (p *QuestionPool) List() []core.Question {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]core.Question(nil), p.questions...)
}

// Recommended returns the questions still eligible to be asked, ordered by
// rank. Unranked questions follow the ranked ones in insertion order.
func (p *QuestionPool) Recommended() []core.Question {
	p.mu.RLock()
	var out []core.Question
	for _, q := range p.questions {
		if q.Status == core.QuestionRecommended {
			out = append(out, q)
		}
	}
	p.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Rank, out[j].Rank
		if ri == 0 || rj == 0 {
			return ri != 0 && rj == 0
		}
		return ri < rj
	})
	return out
}

// UpdateRanking applies ranks by qid and returns how many were applied.
// Rankings for unknown qids are ignored.
func (p *QuestionPool) UpdateRanking(rankings []core.Ranking) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	applied := 0
	for _, r := range rankings {
		i, ok := p.index[r.QID]
		if !ok {
			continue
		}
		p.questions[i].Rank = r.Rank
		applied++
	}
	return applied
}

// UpdateStatus sets the status of a question.
func (p *QuestionPool) UpdateStatus(qid string, status core.QuestionStatus) error {
	return p.update(qid, func(q *core.Question) { q.Status = status })
}

// UpdateAnswer records the patient's answer to a question.
func (p *QuestionPool) UpdateAnswer(qid, answer string) error {
	return p.update(qid, func(q *core.Question) { q.Answer = answer })
}

func (p *QuestionPool) update(qid string, fn func(q *core.Question)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, ok := p.index[qid]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, qid)
	}
	fn(&p.questions[i])
	return nil
}

// LoadQuestionBank reads the seed question list from a JSON file.
func LoadQuestionBank(path string) ([]core.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	var qs []core.Question
	if err := json.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	for i, q := range qs {
		if q.QID == "" {
			return nil, fmt.Errorf("question bank entry %d has no qid", i)
		}
	}
	return qs, nil
}
