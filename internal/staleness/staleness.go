package staleness

import (
	"github.com/pcathey/trellis/internal/assembly"
	"github.com/pcathey/trellis/internal/card"
	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/graph"
)

// Change is one stale-flag flip produced by a refresh pass.
type Change struct {
	CardID  string
	IsStale bool
}

// Refresh recomputes the context fingerprint for rootID and every descendant
// and returns the flag flips the caller must persist. A card is stale exactly
// when it has a response, a fingerprint was recorded at commit time, and the
// current fingerprint differs. The comparison is symmetric: a card whose
// context drifts becomes stale, and one whose context returns to the recorded
// fingerprint is cleared again, with no user action needed.
//
// Every mutating operation runs this last, over the mutated card's subtree.
// A card that has never committed a response cannot be stale.
func Refresh(snap *graph.Snapshot, docs assembly.SurrogateProvider, cfg *config.Config, rootID string) []Change {
	root := snap.Card(rootID)
	if root == nil {
		return nil
	}

	subtree := append([]*card.Card{root}, snap.CollectDescendants(rootID)...)

	var changes []Change
	for _, c := range subtree {
		want := wantStale(snap, docs, cfg, c)
		if want != c.IsStale {
			c.IsStale = want
			changes = append(changes, Change{CardID: c.ID, IsStale: want})
		}
	}
	return changes
}

func wantStale(snap *graph.Snapshot, docs assembly.SurrogateProvider, cfg *config.Config, c *card.Card) bool {
	if c.ResponseText() == "" || c.LastContextFingerprint == nil {
		return false
	}
	return FingerprintFor(snap, docs, cfg, c.ID) != *c.LastContextFingerprint
}
