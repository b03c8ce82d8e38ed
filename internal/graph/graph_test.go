package graph

import (
	"fmt"
	"testing"

	"github.com/pcathey/trellis/internal/card"
)

func mkCard(id string) *card.Card {
	return &card.Card{ID: id, Kind: card.KindAnswerable, Prompt: "p-" + id}
}

func edge(source, target string) card.Edge {
	return card.Edge{SourceID: source, TargetID: target}
}

func TestParentsOf_ExplicitListWins(t *testing.T) {
	legacy := "legacy"
	c := mkCard("c")
	c.ParentIDs = []string{"p2", "p1"}
	c.ParentID = &legacy

	snap := NewSnapshot(
		[]*card.Card{c, mkCard("p1"), mkCard("p2"), mkCard("edge-parent"), mkCard("legacy")},
		[]card.Edge{edge("edge-parent", "c")},
	)

	parents := snap.ParentsOf("c")
	if len(parents) != 2 {
		t.Fatalf("ParentsOf = %d parents, want 2", len(parents))
	}
	// Explicit list order preserved
	if parents[0].ID != "p2" || parents[1].ID != "p1" {
		t.Errorf("ParentsOf order = [%s %s], want [p2 p1]", parents[0].ID, parents[1].ID)
	}
}

func TestParentsOf_EdgesBeforeLegacy(t *testing.T) {
	legacy := "legacy"
	c := mkCard("c")
	c.ParentID = &legacy

	snap := NewSnapshot(
		[]*card.Card{c, mkCard("e1"), mkCard("e2"), mkCard("legacy")},
		[]card.Edge{edge("e1", "c"), edge("e2", "c")},
	)

	parents := snap.ParentsOf("c")
	if len(parents) != 2 || parents[0].ID != "e1" || parents[1].ID != "e2" {
		t.Fatalf("ParentsOf = %v, want edges [e1 e2] in discovery order", ids(parents))
	}
}

func TestParentsOf_LegacyFallback(t *testing.T) {
	legacy := "legacy"
	c := mkCard("c")
	c.ParentID = &legacy

	snap := NewSnapshot([]*card.Card{c, mkCard("legacy")}, nil)

	parents := snap.ParentsOf("c")
	if len(parents) != 1 || parents[0].ID != "legacy" {
		t.Fatalf("ParentsOf = %v, want [legacy]", ids(parents))
	}
}

func TestParentsOf_UnknownIDsDropped(t *testing.T) {
	c := mkCard("c")
	c.ParentIDs = []string{"ghost", "p1"}

	snap := NewSnapshot([]*card.Card{c, mkCard("p1")}, nil)

	parents := snap.ParentsOf("c")
	if len(parents) != 1 || parents[0].ID != "p1" {
		t.Fatalf("ParentsOf = %v, want ghost dropped", ids(parents))
	}
}

func TestParentsOf_SoftDeletedDropped(t *testing.T) {
	deleted := mkCard("p1")
	now := int64(100)
	deleted.DeletedAt = &now

	c := mkCard("c")
	c.ParentIDs = []string{"p1"}

	snap := NewSnapshot([]*card.Card{c, deleted}, nil)
	if got := snap.ParentsOf("c"); len(got) != 0 {
		t.Fatalf("ParentsOf = %v, want deleted parent dropped", ids(got))
	}
}

func TestCollectAncestors_BFSOrderAndLevels(t *testing.T) {
	// c -> [p1, p2]; p1 -> [g1]; p2 -> [g2]
	c := mkCard("c")
	c.ParentIDs = []string{"p1", "p2"}
	p1 := mkCard("p1")
	p1.ParentIDs = []string{"g1"}
	p2 := mkCard("p2")
	p2.ParentIDs = []string{"g2"}

	snap := NewSnapshot([]*card.Card{c, p1, p2, mkCard("g1"), mkCard("g2")}, nil)

	ancestors := snap.CollectAncestors("c")
	wantOrder := []string{"p1", "p2", "g1", "g2"}
	wantLevel := []int{0, 0, 1, 1}
	if len(ancestors) != len(wantOrder) {
		t.Fatalf("CollectAncestors = %d entries, want %d", len(ancestors), len(wantOrder))
	}
	for i, a := range ancestors {
		if a.Card.ID != wantOrder[i] || a.Level != wantLevel[i] {
			t.Errorf("ancestors[%d] = (%s, %d), want (%s, %d)",
				i, a.Card.ID, a.Level, wantOrder[i], wantLevel[i])
		}
	}
}

func TestCollectAncestors_ConvergingDAGNoDuplicates(t *testing.T) {
	// Diamond: c -> [p1, p2], both -> g
	c := mkCard("c")
	c.ParentIDs = []string{"p1", "p2"}
	p1 := mkCard("p1")
	p1.ParentIDs = []string{"g"}
	p2 := mkCard("p2")
	p2.ParentIDs = []string{"g"}

	snap := NewSnapshot([]*card.Card{c, p1, p2, mkCard("g")}, nil)

	ancestors := snap.CollectAncestors("c")
	seen := make(map[string]int)
	for _, a := range ancestors {
		seen[a.Card.ID]++
	}
	if seen["g"] != 1 {
		t.Errorf("grandparent appeared %d times, want exactly 1", seen["g"])
	}
	if len(ancestors) != 3 {
		t.Errorf("CollectAncestors = %d entries, want 3", len(ancestors))
	}
}

func TestCollectAncestors_CycleTerminates(t *testing.T) {
	// a -> b -> a, malformed but traversal must terminate
	a := mkCard("a")
	a.ParentIDs = []string{"b"}
	b := mkCard("b")
	b.ParentIDs = []string{"a"}

	snap := NewSnapshot([]*card.Card{a, b}, nil)

	ancestors := snap.CollectAncestors("a")
	if len(ancestors) != 1 || ancestors[0].Card.ID != "b" {
		t.Fatalf("CollectAncestors = %v, want just [b]", ancestorIDs(ancestors))
	}
}

func TestCollectAncestors_DeepChainHitsCeiling(t *testing.T) {
	var cards []*card.Card
	prev := ""
	for i := 0; i < 50; i++ {
		c := mkCard(fmt.Sprintf("n%d", i))
		if prev != "" {
			c.ParentIDs = []string{prev}
		}
		cards = append(cards, c)
		prev = c.ID
	}

	snap := NewSnapshot(cards, nil)
	snap.SetMaxTraversal(10)

	ancestors := snap.CollectAncestors("n49")
	if len(ancestors) >= 49 {
		t.Errorf("ceiling did not cut traversal: %d ancestors", len(ancestors))
	}
	if len(ancestors) == 0 {
		t.Error("ceiling should still allow partial traversal")
	}
}

func TestCollectDescendants_Cascade(t *testing.T) {
	// a -> b -> c via edges
	snap := NewSnapshot(
		[]*card.Card{mkCard("a"), mkCard("b"), mkCard("c")},
		[]card.Edge{edge("a", "b"), edge("b", "c")},
	)

	descendants := snap.CollectDescendants("a")
	if len(descendants) != 2 {
		t.Fatalf("CollectDescendants = %v, want [b c]", ids(descendants))
	}
	if descendants[0].ID != "b" || descendants[1].ID != "c" {
		t.Errorf("CollectDescendants order = %v, want [b c]", ids(descendants))
	}
}

func TestChildrenOf_MirrorsParentResolution(t *testing.T) {
	// child has an incoming edge from "a" but an explicit parent list
	// naming only "b": the explicit tier wins, so "a" has no children.
	child := mkCard("child")
	child.ParentIDs = []string{"b"}

	snap := NewSnapshot(
		[]*card.Card{child, mkCard("a"), mkCard("b")},
		[]card.Edge{edge("a", "child")},
	)

	if got := snap.ChildrenOf("a"); len(got) != 0 {
		t.Errorf("ChildrenOf(a) = %v, want none (explicit list overrides edge)", ids(got))
	}
	got := snap.ChildrenOf("b")
	if len(got) != 1 || got[0].ID != "child" {
		t.Errorf("ChildrenOf(b) = %v, want [child]", ids(got))
	}
}

func TestIsAncestorOf(t *testing.T) {
	b := mkCard("b")
	b.ParentIDs = []string{"a"}
	snap := NewSnapshot([]*card.Card{mkCard("a"), b}, nil)

	if !snap.IsAncestorOf("b", "a") {
		t.Error("a should be an ancestor of b")
	}
	if snap.IsAncestorOf("a", "b") {
		t.Error("b should not be an ancestor of a")
	}
}

func ids(cards []*card.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func ancestorIDs(ancestors []Ancestor) []string {
	out := make([]string, len(ancestors))
	for i, a := range ancestors {
		out[i] = a.Card.ID
	}
	return out
}
