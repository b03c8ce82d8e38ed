// Package assembly implements context assembly for the card graph: the
// compiler that turns a card's ancestor chain, attachments, and virtual
// ancestors into an ordered sequence of context blocks, plus the flattening
// into the text a generation request consumes.
//
// Everything here is a pure function of a graph snapshot. Assembly never
// fails: missing references are dropped, orphaned quotes omitted, absent
// surrogates degrade to placeholders.
package assembly

import (
	"github.com/pcathey/trellis/internal/card"
	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/graph"
)

// Settings carries everything a single assembly call depends on besides the
// snapshot: the global summarization flag, the truncation caps, and the
// target card's exclusion registry. It is passed explicitly so the compiler
// stays a pure function.
type Settings struct {
	UseSummarization bool
	QuoteBodyCap     int
	DeepQuoteBodyCap int

	// ExcludedAncestors and ExcludedAttachments form the exclusion
	// registry for the target card. Both the preview surface and the
	// generation path consult them through the same Compile call; there
	// is no second assembly path that could diverge.
	ExcludedAncestors   map[string]bool
	ExcludedAttachments map[string]bool
}

// SettingsFor builds assembly settings for the given target card.
func SettingsFor(cfg *config.Config, target *card.Card) Settings {
	st := Settings{
		QuoteBodyCap:        cfg.QuoteBodyCap,
		DeepQuoteBodyCap:    cfg.DeepQuoteBodyCap,
		UseSummarization:    cfg.UseSummarization,
		ExcludedAncestors:   make(map[string]bool),
		ExcludedAttachments: make(map[string]bool),
	}
	if target == nil {
		return st
	}
	for _, id := range target.ExcludedAncestorIDs {
		st.ExcludedAncestors[id] = true
	}
	for _, id := range target.ExcludedAttachmentIDs {
		st.ExcludedAttachments[id] = true
	}
	return st
}

// Compile assembles the ordered context block sequence for a card:
// the target's own attachments first, then one block per non-excluded
// ancestor in BFS discovery order (each followed by that ancestor's
// attachments), then virtual-ancestor blocks. The same sequence backs both
// the preview surface and the flattened generation text.
func Compile(snap *graph.Snapshot, docs SurrogateProvider, cardID string, st Settings) []card.ContextBlock {
	target := snap.Card(cardID)
	if target == nil {
		return nil
	}

	ancestors := snap.CollectAncestors(cardID)
	seen := make(map[string]bool) // attachment dedup, nearest source wins

	var blocks []card.ContextBlock

	// The target's own attachments surface their fullest surrogate.
	blocks = append(blocks, attachmentBlocks(target, 0, false, st, docs, seen)...)

	for _, a := range ancestors {
		if st.ExcludedAncestors[a.Card.ID] {
			continue
		}

		blocks = append(blocks, ancestorBlock(target, ancestors, a, st))

		// Inherited attachments propagate only as condensed surrogates.
		blocks = append(blocks, attachmentBlocks(a.Card, a.Level, true, st, docs, seen)...)
	}

	blocks = append(blocks, virtualBlocks(snap, target, ancestors, st)...)

	return blocks
}

// ancestorBlock builds the block for one ancestor, applying the quote
// propagation rule and the full/summary selection.
func ancestorBlock(target *card.Card, ancestors []graph.Ancestor, a graph.Ancestor, st Settings) card.ContextBlock {
	block := card.ContextBlock{
		Level:    a.Level,
		SourceID: a.Card.ID,
		CardKind: a.Card.Kind,
	}

	quote := findQuote(target, ancestors, a.Card.ID, st)
	if quote == "" {
		// No quote: plain full/summary selection with full-response
		// fallback while summarization is still in flight.
		block.Kind = card.BlockFull
		block.Text, block.ContentKind = contentFor(a.Card, st.UseSummarization)
		if block.ContentKind == card.ContentSummary {
			block.Kind = card.BlockSummary
		}
		return block
	}

	block.Kind = card.BlockQuote
	block.QuoteText = &quote

	if !st.UseSummarization {
		block.Text = rawContent(a.Card)
		block.ContentKind = card.ContentFull
		return block
	}

	// Summarization on: body is the summary when present. Otherwise the
	// full response, truncated only beyond direct parents.
	if s := a.Card.SummaryText(); s != "" {
		block.Text = s
		block.ContentKind = card.ContentSummary
		return block
	}

	raw := rawContent(a.Card)
	if a.Level == 0 {
		block.Text = raw
		block.ContentKind = card.ContentFull
		return block
	}

	capChars := st.QuoteBodyCap
	if a.Level > 1 {
		capChars = st.DeepQuoteBodyCap
	}
	block.Text = card.Truncate(raw, capChars)
	if block.Text != raw {
		block.ContentKind = card.ContentSummary
	} else {
		block.ContentKind = card.ContentFull
	}
	return block
}

// findQuote implements quote propagation: a quote anchored anywhere
// downstream in the chain pins the quoted ancestor's display to that quote.
// The target card is checked first, then the remaining ancestors in
// discovery order; the quoted ancestor itself and excluded cards never
// contribute.
func findQuote(target *card.Card, ancestors []graph.Ancestor, ancestorID string, st Settings) string {
	if target.HasQuote() && *target.QuoteSourceID == ancestorID {
		return *target.Quote
	}
	for _, a := range ancestors {
		if a.Card.ID == ancestorID || st.ExcludedAncestors[a.Card.ID] {
			continue
		}
		if a.Card.HasQuote() && *a.Card.QuoteSourceID == ancestorID {
			return *a.Card.Quote
		}
	}
	return ""
}

// contentFor selects the text generation would use for a card: summary when
// summarization is on and one exists, otherwise the raw content.
func contentFor(c *card.Card, useSummarization bool) (string, card.ContentKind) {
	if useSummarization {
		if s := c.SummaryText(); s != "" {
			return s, card.ContentSummary
		}
	}
	return rawContent(c), card.ContentFull
}

// rawContent is the card's response, falling back to the prompt for note
// cards (which carry their content there) and for answerable cards not yet
// generated.
func rawContent(c *card.Card) string {
	if r := c.ResponseText(); r != "" {
		return r
	}
	return c.Prompt
}
