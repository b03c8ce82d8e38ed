// Package staleness tracks whether a card's saved response still matches the
// context it was generated under. The fingerprint condenses the primary
// assembly inputs to a hash; the refresh pass compares fingerprints against
// the ones recorded at commit time and flips stale flags in both directions.
package staleness

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/pcathey/trellis/internal/assembly"
	"github.com/pcathey/trellis/internal/card"
	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/graph"
)

// Fingerprint hashes the primary inputs of a card's assembled context: per
// block the origin, source id, quote linkage, and the text generation would
// use, plus the exclusion sets and the stored virtual-ancestor id list.
// Display-only data (content-kind flags, timestamps, attachment versions)
// never enters the hash, so cosmetic churn cannot invalidate responses.
//
// The blocks come from the same Compile call that backs preview and
// generation; the fingerprint cannot drift from what the user saw.
func Fingerprint(snap *graph.Snapshot, docs assembly.SurrogateProvider, cardID string, st assembly.Settings) string {
	target := snap.Card(cardID)
	if target == nil {
		return ""
	}

	var parts []string
	for _, b := range assembly.Compile(snap, docs, cardID, st) {
		quote := ""
		if b.QuoteText != nil {
			quote = *b.QuoteText
		}
		parts = append(parts, canonical(origin(b), b.SourceID, quote, b.Text))
	}

	parts = append(parts,
		canonical("excluded-ancestors", sortedJoin(target.ExcludedAncestorIDs)),
		canonical("excluded-attachments", sortedJoin(target.ExcludedAttachmentIDs)),
		canonical("virtual-ids", strings.Join(target.VirtualAncestorIDs, ",")),
	)

	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1e")))
	return hex.EncodeToString(sum[:])
}

// FingerprintFor is Fingerprint with settings derived from config and the
// card's own exclusion registry, the form every operation uses.
func FingerprintFor(snap *graph.Snapshot, docs assembly.SurrogateProvider, cfg *config.Config, cardID string) string {
	return Fingerprint(snap, docs, cardID, assembly.SettingsFor(cfg, snap.Card(cardID)))
}

func origin(b card.ContextBlock) string {
	switch {
	case b.FromAttachment:
		return "attachment"
	case b.Kind == card.BlockVirtual:
		return "virtual"
	default:
		return "ancestor"
	}
}

// canonical joins fields with a separator that cannot occur in card text, so
// field boundaries survive arbitrary content.
func canonical(fields ...string) string {
	return strings.Join(fields, "\x1f")
}

// sortedJoin canonicalizes an id set: toggling order must not matter.
func sortedJoin(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return strings.Join(out, ",")
}
