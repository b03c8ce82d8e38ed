// Package graph provides a read-only snapshot of the card graph and the
// traversals context assembly is built on. A snapshot is materialized once
// per operation; the traversals are pure functions over it.
package graph

import (
	"sort"

	"github.com/pcathey/trellis/internal/card"
)

// DefaultMaxTraversal is the hard iteration ceiling for graph walks.
// It guarantees termination on malformed cyclic data; it is not expected
// to be reached by healthy graphs.
const DefaultMaxTraversal = 10000

// Snapshot is a consistent point-in-time view of the card graph.
// It must not be mutated while traversals are running.
type Snapshot struct {
	cards map[string]*card.Card
	edges []card.Edge

	// incoming[target] = parent ids in edge discovery order
	incoming map[string][]string
	// outgoing[source] = child ids in edge discovery order
	outgoing map[string][]string

	maxTraversal int
}

// NewSnapshot builds a snapshot from cards and edges. Edge order is
// preserved as discovery order. Edges referencing unknown cards are kept in
// the index and dropped lazily at resolution time (missing-reference
// tolerance, not an error).
func NewSnapshot(cards []*card.Card, edges []card.Edge) *Snapshot {
	s := &Snapshot{
		cards:        make(map[string]*card.Card, len(cards)),
		edges:        edges,
		incoming:     make(map[string][]string),
		outgoing:     make(map[string][]string),
		maxTraversal: DefaultMaxTraversal,
	}
	for _, c := range cards {
		s.cards[c.ID] = c
	}
	for _, e := range edges {
		s.incoming[e.TargetID] = append(s.incoming[e.TargetID], e.SourceID)
		s.outgoing[e.SourceID] = append(s.outgoing[e.SourceID], e.TargetID)
	}
	return s
}

// SetMaxTraversal overrides the iteration ceiling. Values <= 0 are ignored.
func (s *Snapshot) SetMaxTraversal(n int) {
	if n > 0 {
		s.maxTraversal = n
	}
}

// Card returns the card with the given id, or nil if absent or soft-deleted.
func (s *Snapshot) Card(id string) *card.Card {
	c, ok := s.cards[id]
	if !ok || c.DeletedAt != nil {
		return nil
	}
	return c
}

// Cards returns all live cards in the snapshot (unordered).
func (s *Snapshot) Cards() []*card.Card {
	out := make([]*card.Card, 0, len(s.cards))
	for _, c := range s.cards {
		if c.DeletedAt == nil {
			out = append(out, c)
		}
	}
	return out
}

// ParentsOf resolves a card's direct parents. Three mechanisms exist as a
// schema-migration artifact; the first non-empty tier wins:
//
//  1. explicit ordered parent-id list (multi-parent merge cards)
//  2. incoming edges, in edge discovery order
//  3. legacy single parent-id field
//
// Unknown parent ids are silently dropped.
func (s *Snapshot) ParentsOf(id string) []*card.Card {
	c := s.Card(id)
	if c == nil {
		return nil
	}

	if len(c.ParentIDs) > 0 {
		return s.resolveAll(c.ParentIDs)
	}

	if sources := s.incoming[id]; len(sources) > 0 {
		if parents := s.resolveAll(sources); len(parents) > 0 {
			return parents
		}
	}

	if c.ParentID != nil && *c.ParentID != "" {
		return s.resolveAll([]string{*c.ParentID})
	}

	return nil
}

// ChildrenOf resolves a card's direct children: cards that name it in their
// parent list or legacy parent field, plus outgoing edge targets. Each child
// appears once, in discovery order.
func (s *Snapshot) ChildrenOf(id string) []*card.Card {
	var out []*card.Card
	seen := make(map[string]bool)

	add := func(childID string) {
		if seen[childID] {
			return
		}
		if child := s.Card(childID); child != nil {
			seen[childID] = true
			out = append(out, child)
		}
	}

	for _, target := range s.outgoing[id] {
		add(target)
	}
	// Cards naming id via parent list or legacy field; sorted for
	// deterministic output since map iteration order is random.
	ids := make([]string, 0, len(s.cards))
	for cid := range s.cards {
		ids = append(ids, cid)
	}
	sort.Strings(ids)
	for _, cid := range ids {
		c := s.Card(cid)
		if c == nil {
			continue
		}
		for _, pid := range c.ParentIDs {
			if pid == id {
				add(c.ID)
			}
		}
		if c.ParentID != nil && *c.ParentID == id {
			add(c.ID)
		}
	}

	// ChildrenOf must mirror ParentsOf: a card that reaches id through the
	// outgoing index but resolves its parents from a higher-priority tier
	// that omits id is not a true child.
	filtered := out[:0]
	for _, child := range out {
		for _, p := range s.ParentsOf(child.ID) {
			if p.ID == id {
				filtered = append(filtered, child)
				break
			}
		}
	}
	return filtered
}

func (s *Snapshot) resolveAll(ids []string) []*card.Card {
	out := make([]*card.Card, 0, len(ids))
	for _, id := range ids {
		if c := s.Card(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}
