// Package entity implements the mutation processor: it decodes one entity
// transaction, validates it against current state, and stages a new version
// into a block-scoped staging context.
package entity

import (
	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/store"
)

type stagingKey struct {
	kind domain.EntityKind
	id   int64
}

// StagingContext is the per-block buffer of not-yet-committed versions.
// It is an append-only arena plus an index from (kind, id) to the arena
// position of the id's latest entry: lookups always read through the index
// and never depend on list mutation ordering. A context is block-scoped and
// must be discarded after the block's commit or abort.
type StagingContext struct {
	arena []store.StagedVersion
	index map[stagingKey]int
}

// NewStagingContext creates an empty staging context for one block
func NewStagingContext() *StagingContext {
	return &StagingContext{
		index: make(map[stagingKey]int),
	}
}

// Add stages a new version. It immediately supersedes any prior version of
// the same id in this batch, whether durable or already staged.
func (s *StagingContext) Add(v store.StagedVersion) {
	s.arena = append(s.arena, v)
	s.index[stagingKey{kind: v.Kind, id: v.EntityID}] = len(s.arena) - 1
}

// Latest returns the batch's newest staged version of an id, if any
func (s *StagingContext) Latest(kind domain.EntityKind, id int64) (store.StagedVersion, bool) {
	pos, ok := s.index[stagingKey{kind: kind, id: id}]
	if !ok {
		return store.StagedVersion{}, false
	}
	return s.arena[pos], true
}

// LatestOfKind returns the batch's newest staged version of every id of one
// kind, in arena order
func (s *StagingContext) LatestOfKind(kind domain.EntityKind) []store.StagedVersion {
	var out []store.StagedVersion
	for pos, v := range s.arena {
		if v.Kind == kind && s.index[stagingKey{kind: v.Kind, id: v.EntityID}] == pos {
			out = append(out, v)
		}
	}
	return out
}

// Versions returns the latest staged version per (kind, id), in arena
// order. Superseded intermediate entries are dropped: only the final
// version of each id is flushed at commit.
func (s *StagingContext) Versions() []store.StagedVersion {
	out := make([]store.StagedVersion, 0, len(s.index))
	for pos, v := range s.arena {
		if s.index[stagingKey{kind: v.Kind, id: v.EntityID}] == pos {
			out = append(out, v)
		}
	}
	return out
}

// Len returns the number of distinct staged entities
func (s *StagingContext) Len() int {
	return len(s.index)
}
