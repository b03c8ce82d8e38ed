package assembly

import "github.com/pcathey/trellis/internal/card"

// Placeholder text for attachments whose surrogates have not been produced
// yet. An explicit empty state, never omission: the user must be able to see
// that the attachment is part of the context even before processing lands.
const (
	ImagePlaceholder = "[image attachment: description pending]"
	TextPlaceholder  = "[attachment: content pending]"
)

// SurrogateProvider resolves the authoritative surrogate record for an
// attachment id. A nil return means the document store has no entry and the
// legacy per-card cached copy is all we have.
type SurrogateProvider interface {
	Document(id string) *card.Document
}

// DocumentSet is an in-memory SurrogateProvider.
type DocumentSet map[string]*card.Document

// Document implements SurrogateProvider.
func (d DocumentSet) Document(id string) *card.Document {
	return d[id]
}

// attachmentBlocks resolves the text surrogate for each of the owner's
// attachments. preferSummary is false only for the target card's own
// attachments (fullest available surrogate); inherited attachments surface
// summary-first so full document text never propagates to descendants.
// seen deduplicates shared attachments across owners: the first occurrence
// in closeness-to-target order survives.
func attachmentBlocks(owner *card.Card, level int, preferSummary bool, st Settings, docs SurrogateProvider, seen map[string]bool) []card.ContextBlock {
	var blocks []card.ContextBlock

	for _, att := range owner.Attachments {
		if st.ExcludedAttachments[att.AttachmentID] {
			continue
		}
		if seen[att.AttachmentID] {
			continue
		}
		seen[att.AttachmentID] = true

		var doc *card.Document
		if docs != nil {
			doc = docs.Document(att.AttachmentID)
		}

		text, kind, contentKind := resolveSurrogate(att, doc, preferSummary)
		blocks = append(blocks, card.ContextBlock{
			Level:          level,
			Kind:           kind,
			ContentKind:    contentKind,
			SourceID:       att.AttachmentID,
			FromAttachment: true,
			Text:           text,
		})
	}

	return blocks
}

// resolveSurrogate picks the text surfaced for an attachment.
//
// Each surrogate field resolves authoritative-store first, legacy cached
// copy second. Images surface only the caption description; recognized raw
// text is deliberately never exposed. Text attachments pick between excerpt
// (fullest) and summary according to preferSummary.
func resolveSurrogate(att card.Attachment, doc *card.Document, preferSummary bool) (string, card.BlockKind, card.ContentKind) {
	excerpt := coalesce(docField(doc, func(d *card.Document) *string { return d.Excerpt }), att.Excerpt)
	summary := coalesce(docField(doc, func(d *card.Document) *string { return d.Summary }), att.Summary)
	description := coalesce(docField(doc, func(d *card.Document) *string { return d.Description }), att.Description)

	if att.Kind == card.AttachmentImage {
		if description != "" {
			return description, card.BlockSummary, card.ContentSummary
		}
		return ImagePlaceholder, card.BlockSummary, card.ContentSummary
	}

	if preferSummary {
		if summary != "" {
			return summary, card.BlockSummary, card.ContentSummary
		}
		if excerpt != "" {
			return excerpt, card.BlockFull, card.ContentFull
		}
	} else {
		if excerpt != "" {
			return excerpt, card.BlockFull, card.ContentFull
		}
		if summary != "" {
			return summary, card.BlockSummary, card.ContentSummary
		}
	}

	return TextPlaceholder, card.BlockFull, card.ContentFull
}

func docField(doc *card.Document, get func(*card.Document) *string) *string {
	if doc == nil {
		return nil
	}
	return get(doc)
}

func coalesce(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
