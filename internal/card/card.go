package card

// Kind distinguishes AI-answerable cards from free-form notes.
// It is carried through context assembly unchanged and never affects
// selection logic.
type Kind string

const (
	KindAnswerable Kind = "answerable"
	KindNote       Kind = "note"
)

// AttachmentKind distinguishes text documents from images.
type AttachmentKind string

const (
	AttachmentText  AttachmentKind = "text"
	AttachmentImage AttachmentKind = "image"
)

// Card is a node in the card graph.
type Card struct {
	// ID is a ULID that uniquely identifies this card
	ID string `json:"id"`

	// Kind is "answerable" or "note"
	Kind Kind `json:"kind"`

	// Prompt is the question or note text
	Prompt string `json:"prompt"`

	// Response is the generated answer (nullable until first generation)
	Response *string `json:"response,omitempty"`

	// Summary is an externally produced condensation of the response (nullable)
	Summary *string `json:"summary,omitempty"`

	// Quote is a fragment of an ancestor's response this card is anchored to
	Quote *string `json:"quote,omitempty"`

	// QuoteSourceID is the id of the card the quote was taken from
	QuoteSourceID *string `json:"quote_source_id,omitempty"`

	// ParentIDs is the explicit ordered parent list (highest-priority
	// parent mechanism; supports multi-parent merge cards)
	ParentIDs []string `json:"parent_ids,omitempty"`

	// ParentID is the legacy single-parent reference (lowest priority)
	ParentID *string `json:"parent_id,omitempty"`

	// ExcludedAncestorIDs are ancestors the user disabled for this card
	ExcludedAncestorIDs []string `json:"excluded_ancestor_ids,omitempty"`

	// ExcludedAttachmentIDs are attachments the user disabled for this card
	ExcludedAttachmentIDs []string `json:"excluded_attachment_ids,omitempty"`

	// VirtualAncestorIDs are semantic-search derived context cards
	VirtualAncestorIDs []string `json:"virtual_ancestor_ids,omitempty"`

	// Attachments are the documents attached directly to this card
	Attachments []Attachment `json:"attachments,omitempty"`

	// IsStale is true when the saved response no longer matches the
	// current context fingerprint
	IsStale bool `json:"is_stale"`

	// LastContextFingerprint is the fingerprint recorded when the current
	// response was committed (nullable until first commit)
	LastContextFingerprint *string `json:"last_context_fingerprint,omitempty"`

	// CreatedAt is the Unix timestamp when the card was created
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp when the card was last updated
	UpdatedAt int64 `json:"updated_at"`

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

// Edge is a parent->child link: source is the parent, target the child.
type Edge struct {
	SourceID  string `json:"source_id"`
	TargetID  string `json:"target_id"`
	CreatedAt int64  `json:"created_at"`
}

// Attachment is a document attached to a card. The surrogate fields are
// legacy per-card cached copies; the authoritative copies live in the
// document store and take priority during resolution.
type Attachment struct {
	// AttachmentID is the content-addressed document id
	AttachmentID string `json:"attachment_id"`

	// CardID is the owning card
	CardID string `json:"card_id"`

	// Kind is "text" or "image"
	Kind AttachmentKind `json:"kind"`

	// Excerpt is a cached leading slice of the document text
	Excerpt *string `json:"excerpt,omitempty"`

	// Summary is a cached condensation of the document
	Summary *string `json:"summary,omitempty"`

	// Description is a cached caption for image attachments
	Description *string `json:"description,omitempty"`

	// Version is a cache-busting marker (content hash or update stamp).
	// It never participates in staleness decisions.
	Version *string `json:"version,omitempty"`

	// CreatedAt is the Unix timestamp when the attachment was added
	CreatedAt int64 `json:"created_at"`
}

// Document is a row in the authoritative surrogate store. Excerpt, summary
// and description are produced by external async services; any of them may
// be absent at read time.
type Document struct {
	ID          string         `json:"id"`
	Kind        AttachmentKind `json:"kind"`
	Excerpt     *string        `json:"excerpt,omitempty"`
	Summary     *string        `json:"summary,omitempty"`
	Description *string        `json:"description,omitempty"`
	Version     *string        `json:"version,omitempty"`
	UpdatedAt   int64          `json:"updated_at"`
}

// ResponseText returns the card's response, or "" when none exists.
func (c *Card) ResponseText() string {
	if c.Response == nil {
		return ""
	}
	return *c.Response
}

// SummaryText returns the card's summary, or "" when none exists.
func (c *Card) SummaryText() string {
	if c.Summary == nil {
		return ""
	}
	return *c.Summary
}

// HasQuote reports whether the card carries a usable quote anchor.
func (c *Card) HasQuote() bool {
	return c.Quote != nil && *c.Quote != "" && c.QuoteSourceID != nil && *c.QuoteSourceID != ""
}
