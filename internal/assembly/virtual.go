package assembly

import (
	"github.com/pcathey/trellis/internal/card"
	"github.com/pcathey/trellis/internal/graph"
)

// Candidate is one ranked semantic-search hit.
type Candidate struct {
	CardID  string  `json:"card_id"`
	Score   float64 `json:"score"`
	Preview string  `json:"preview,omitempty"`
}

// SearchService returns ranked candidates for a text query. The concrete
// provider (FTS, embeddings) lives outside the engine.
type SearchService interface {
	Search(query string, limit int) ([]Candidate, error)
}

// FilterVirtual removes candidates that must never become virtual ancestors
// of cardID: the card itself, its true ancestors and descendants (lineage
// context is already delivered through the compiler; admitting it again
// would duplicate content and risk a card's own future context leaking into
// its present generation), and any id no longer in the live card set
// (async index lag after deletion). Survivors are capped to topK.
func FilterVirtual(snap *graph.Snapshot, cardID string, candidates []Candidate, topK int) []Candidate {
	lineage := map[string]bool{cardID: true}
	for _, a := range snap.CollectAncestors(cardID) {
		lineage[a.Card.ID] = true
	}
	for _, d := range snap.CollectDescendants(cardID) {
		lineage[d.ID] = true
	}

	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if lineage[c.CardID] {
			continue
		}
		if snap.Card(c.CardID) == nil {
			continue
		}
		out = append(out, c)
		if topK > 0 && len(out) >= topK {
			break
		}
	}
	return out
}

// virtualBlocks resolves stored virtual-ancestor ids into blocks. The
// target's own list surfaces at level -1 (direct hits). Each non-excluded
// ancestor's stored list surfaces too, at a synthetic depth one beyond that
// ancestor — a hit discovered transitively is context of context, and its
// depth should say so. Every id is re-filtered against the target's lineage
// at compile time: ids that have since been deleted or have become true
// lineage (the user may have linked the card after a list was stored) are
// skipped, so the lineage invariant holds at compile time, not just at
// candidate-selection time. A card surfaced by several lists appears once,
// nearest source first.
func virtualBlocks(snap *graph.Snapshot, target *card.Card, ancestors []graph.Ancestor, st Settings) []card.ContextBlock {
	var blocks []card.ContextBlock
	emitted := make(map[string]bool)

	blocks = append(blocks, resolveVirtual(snap, target, target.VirtualAncestorIDs, card.LevelVirtual, st, emitted)...)

	for _, a := range ancestors {
		if st.ExcludedAncestors[a.Card.ID] {
			continue
		}
		blocks = append(blocks, resolveVirtual(snap, target, a.Card.VirtualAncestorIDs, a.Level+1, st, emitted)...)
	}

	return blocks
}

// resolveVirtual turns one stored candidate list into blocks at the given
// level, filtering against the target's lineage and skipping already-emitted
// ids.
func resolveVirtual(snap *graph.Snapshot, target *card.Card, ids []string, level int, st Settings, emitted map[string]bool) []card.ContextBlock {
	if len(ids) == 0 {
		return nil
	}

	recheck := FilterVirtual(snap, target.ID, asCandidates(ids), 0)

	blocks := make([]card.ContextBlock, 0, len(recheck))
	for _, cand := range recheck {
		if emitted[cand.CardID] {
			continue
		}
		v := snap.Card(cand.CardID)
		if v == nil {
			continue
		}
		emitted[cand.CardID] = true
		text, contentKind := contentFor(v, st.UseSummarization)
		blocks = append(blocks, card.ContextBlock{
			Level:       level,
			Kind:        card.BlockVirtual,
			ContentKind: contentKind,
			SourceID:    v.ID,
			CardKind:    v.Kind,
			Text:        text,
		})
	}
	return blocks
}

func asCandidates(ids []string) []Candidate {
	out := make([]Candidate, len(ids))
	for i, id := range ids {
		out[i] = Candidate{CardID: id}
	}
	return out
}
