package interview

import (
	"sync/atomic"

	"github.com/safal938/nurse-sim/core"
)

type rankedSnapshot struct {
	version   uint64
	questions []core.Question
}

// RankedCache holds the most recent ranked recommended question list. The
// monitor stores, the main loop loads; a load always sees one complete
// list, never a mix of two publications.
type RankedCache struct {
	v atomic.Pointer[rankedSnapshot]
}

// NewRankedCache creates a cache seeded with initial.
func NewRankedCache(initial []core.Question) *RankedCache {
	c := &RankedCache{}
	c.v.Store(&rankedSnapshot{questions: clone(initial)})
	return c
}

// Store publishes a new list, replacing the previous one wholesale.
func (c *RankedCache) Store(questions []core.Question) {
	prev := c.v.Load()
	c.v.Store(&rankedSnapshot{version: prev.version + 1, questions: clone(questions)})
}

// Load returns a copy of the latest list.
func (c *RankedCache) Load() []core.Question {
	return clone(c.v.Load().questions)
}

// Version counts Store calls since creation.
func (c *RankedCache) Version() uint64 { return c.v.Load().version }

func clone(in []core.Question) []core.Question {
	if in == nil {
		return []core.Question{}
	}
	out := make([]core.Question, len(in))
	copy(out, in)
	return out
}
