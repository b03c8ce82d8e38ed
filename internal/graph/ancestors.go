package graph

import "github.com/pcathey/trellis/internal/card"

// Ancestor is one card reached by the upward walk, tagged with its BFS depth
// (0 = direct parent).
type Ancestor struct {
	Card  *card.Card
	Level int
}

// CollectAncestors walks parent links breadth-first from the given card and
// returns every reachable ancestor exactly once, in discovery order: all
// direct parents first, then their parents, and so on. Multi-parent
// convergence is common; the visited set keyed by card id prevents duplicate
// entries. The iteration ceiling terminates the walk early on cyclic data.
func (s *Snapshot) CollectAncestors(id string) []Ancestor {
	var out []Ancestor
	visited := map[string]bool{id: true}

	type item struct {
		id    string
		level int
	}
	queue := []item{{id: id, level: -1}}

	steps := 0
	for len(queue) > 0 {
		steps++
		if steps > s.maxTraversal {
			break
		}

		cur := queue[0]
		queue = queue[1:]

		for _, p := range s.ParentsOf(cur.id) {
			if visited[p.ID] {
				continue
			}
			visited[p.ID] = true
			out = append(out, Ancestor{Card: p, Level: cur.level + 1})
			queue = append(queue, item{id: p.ID, level: cur.level + 1})
		}
	}

	return out
}

// CollectDescendants walks child links breadth-first and returns every
// reachable descendant exactly once, in discovery order. Used by the
// staleness cascade.
func (s *Snapshot) CollectDescendants(id string) []*card.Card {
	var out []*card.Card
	visited := map[string]bool{id: true}
	queue := []string{id}

	steps := 0
	for len(queue) > 0 {
		steps++
		if steps > s.maxTraversal {
			break
		}

		cur := queue[0]
		queue = queue[1:]

		for _, c := range s.ChildrenOf(cur) {
			if visited[c.ID] {
				continue
			}
			visited[c.ID] = true
			out = append(out, c)
			queue = append(queue, c.ID)
		}
	}

	return out
}

// IsAncestorOf reports whether candidate is a true ancestor of id.
func (s *Snapshot) IsAncestorOf(id, candidate string) bool {
	for _, a := range s.CollectAncestors(id) {
		if a.Card.ID == candidate {
			return true
		}
	}
	return false
}
