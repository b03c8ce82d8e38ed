package card

// BlockKind describes how an ancestor is surfaced in assembled context.
type BlockKind string

const (
	// BlockFull surfaces the source's full response
	BlockFull BlockKind = "full"

	// BlockQuote pins the source's display to a downstream quote
	BlockQuote BlockKind = "quote"

	// BlockSummary surfaces the source's summary
	BlockSummary BlockKind = "summary"

	// BlockVirtual surfaces a semantic-search hit that is not true lineage
	BlockVirtual BlockKind = "virtual"
)

// ContentKind describes what the surfaced text actually is, independent of
// BlockKind. It is a display-semantics flag only: it must never influence
// the text assembled for a generation request.
type ContentKind string

const (
	ContentFull    ContentKind = "full"
	ContentSummary ContentKind = "summary"
)

// Levels used by ContextBlock. Non-negative levels are BFS depth from the
// target card (0 = direct parent).
const (
	// LevelVirtual marks a direct semantic-search hit
	LevelVirtual = -1
)

// ContextBlock is one unit of assembled context. Blocks are constructed
// fresh on every assembly call and never persisted.
type ContextBlock struct {
	// Level is the ancestor depth (0 = direct parent, -1 = virtual hit).
	// The target card's own attachments also carry level 0.
	Level int `json:"level"`

	// Kind is how the source is surfaced
	Kind BlockKind `json:"kind"`

	// ContentKind is what the text actually is (display flag only)
	ContentKind ContentKind `json:"content_kind"`

	// SourceID is the card id or attachment id the block derives from
	SourceID string `json:"source_id"`

	// CardKind is carried through for card-sourced blocks
	CardKind Kind `json:"card_kind,omitempty"`

	// FromAttachment is true when the block derives from an attachment
	FromAttachment bool `json:"from_attachment,omitempty"`

	// Text is the body surfaced for this source
	Text string `json:"text"`

	// QuoteText is the verbatim downstream quote, set only for BlockQuote
	QuoteText *string `json:"quote_text,omitempty"`
}
