package mcp

import "github.com/mark3labs/mcp-go/mcp"

var storeToolDef = mcp.NewTool("card_store",
	mcp.WithDescription("Create a card: a question to be answered in its graph context, or a free-form note."),
	mcp.WithString("prompt",
		mcp.Required(),
		mcp.Description("The question or note text"),
	),
	mcp.WithString("kind",
		mcp.Description("Card kind: answerable (default) or note"),
	),
	mcp.WithArray("parent_ids",
		mcp.Description("Ordered parent card ids (explicit parent list)"),
	),
	mcp.WithString("quote",
		mcp.Description("Fragment of an ancestor's response this card is anchored to"),
	),
	mcp.WithString("quote_source_id",
		mcp.Description("Id of the card the quote was taken from (required with quote)"),
	),
)

var fetchToolDef = mcp.NewTool("card_fetch",
	mcp.WithDescription("Fetch a card by id, including its attachments."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card id")),
	mcp.WithBoolean("include_deleted",
		mcp.Description("Also resolve soft-deleted cards"),
	),
)

var listToolDef = mcp.NewTool("card_list",
	mcp.WithDescription("List cards, most recently updated first."),
	mcp.WithNumber("limit",
		mcp.Description("Max results (default: 20, max: 100)"),
	),
)

var updateToolDef = mcp.NewTool("card_update",
	mcp.WithDescription("Edit a card's prompt, summary, or quote anchor."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card id")),
	mcp.WithString("prompt", mcp.Description("New prompt text")),
	mcp.WithString("summary", mcp.Description("Externally produced summary of the response")),
	mcp.WithString("quote", mcp.Description("New quote fragment")),
	mcp.WithString("quote_source_id", mcp.Description("Card the quote was taken from")),
	mcp.WithBoolean("clear_quote", mcp.Description("Remove the quote anchor")),
)

var deleteToolDef = mcp.NewTool("card_delete",
	mcp.WithDescription("Soft-delete a card. Descendants keep working; the card drops out of their context."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card id")),
)

var linkToolDef = mcp.NewTool("card_link",
	mcp.WithDescription("Make source_id a parent of target_id. Rejected if it would create a cycle."),
	mcp.WithString("source_id", mcp.Required(), mcp.Description("Parent card id")),
	mcp.WithString("target_id", mcp.Required(), mcp.Description("Child card id")),
)

var unlinkToolDef = mcp.NewTool("card_unlink",
	mcp.WithDescription("Remove a parent->child link."),
	mcp.WithString("source_id", mcp.Required(), mcp.Description("Parent card id")),
	mcp.WithString("target_id", mcp.Required(), mcp.Description("Child card id")),
)

var setParentsToolDef = mcp.NewTool("card_set_parents",
	mcp.WithDescription("Replace a card's explicit ordered parent list."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card id")),
	mcp.WithArray("parent_ids",
		mcp.Required(),
		mcp.Description("Ordered parent card ids (empty clears the list)"),
	),
)

var attachToolDef = mcp.NewTool("card_attach",
	mcp.WithDescription("Attach a document to a card, optionally with cached surrogate text."),
	mcp.WithString("card_id", mcp.Required(), mcp.Description("Card id")),
	mcp.WithString("attachment_id", mcp.Required(), mcp.Description("Document id")),
	mcp.WithString("kind", mcp.Description("Attachment kind: text (default) or image")),
	mcp.WithString("excerpt", mcp.Description("Cached leading slice of the document text")),
	mcp.WithString("summary", mcp.Description("Cached condensation of the document")),
	mcp.WithString("description", mcp.Description("Cached caption for image attachments")),
	mcp.WithString("version", mcp.Description("Cache-busting marker")),
)

var detachToolDef = mcp.NewTool("card_detach",
	mcp.WithDescription("Remove an attachment from a card."),
	mcp.WithString("card_id", mcp.Required(), mcp.Description("Card id")),
	mcp.WithString("attachment_id", mcp.Required(), mcp.Description("Document id")),
)

var excludeAncestorToolDef = mcp.NewTool("card_exclude_ancestor",
	mcp.WithDescription("Toggle an ancestor in or out of a card's context."),
	mcp.WithString("card_id", mcp.Required(), mcp.Description("Card id")),
	mcp.WithString("target_id", mcp.Required(), mcp.Description("Ancestor card id to toggle")),
)

var excludeAttachmentToolDef = mcp.NewTool("card_exclude_attachment",
	mcp.WithDescription("Toggle an attachment in or out of a card's context."),
	mcp.WithString("card_id", mcp.Required(), mcp.Description("Card id")),
	mcp.WithString("target_id", mcp.Required(), mcp.Description("Attachment id to toggle")),
)

var contextToolDef = mcp.NewTool("card_context",
	mcp.WithDescription("Assemble a card's context: block listing, flattened generation text, fingerprint, and stale flag. What this returns is exactly what generation consumes."),
	mcp.WithString("card_id", mcp.Required(), mcp.Description("Card id")),
)

var commitToolDef = mcp.NewTool("card_commit",
	mcp.WithDescription("Save a generated response with the fingerprint of the context it was produced under. Partial text from a cancelled generation is accepted."),
	mcp.WithString("card_id", mcp.Required(), mcp.Description("Card id")),
	mcp.WithString("response", mcp.Required(), mcp.Description("The generated response text")),
)

var searchToolDef = mcp.NewTool("card_search",
	mcp.WithDescription("Full-text search over card prompts and responses."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
	mcp.WithNumber("limit", mcp.Description("Max results (default: 10, max: 50)")),
)

var virtualCandidatesToolDef = mcp.NewTool("card_virtual_candidates",
	mcp.WithDescription("Rank cards semantically related to a card as virtual-ancestor candidates. Lineage and dead ids are filtered out."),
	mcp.WithString("card_id", mcp.Required(), mcp.Description("Card id")),
	mcp.WithString("query", mcp.Description("Search query (defaults to the card's prompt)")),
	mcp.WithNumber("limit", mcp.Description("Max candidates before the top-K cap")),
)

var virtualSetToolDef = mcp.NewTool("card_virtual_set",
	mcp.WithDescription("Store a card's virtual-ancestor list. Lineage and dead ids are dropped."),
	mcp.WithString("card_id", mcp.Required(), mcp.Description("Card id")),
	mcp.WithArray("ids",
		mcp.Required(),
		mcp.Description("Virtual ancestor card ids (empty clears the list)"),
	),
)

var docPutToolDef = mcp.NewTool("doc_put",
	mcp.WithDescription("Upsert an authoritative document store entry (excerpt, summary, image description). Cards carrying the attachment are re-checked for staleness."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
	mcp.WithString("kind", mcp.Description("Document kind: text (default) or image")),
	mcp.WithString("excerpt", mcp.Description("Leading slice of the document text")),
	mcp.WithString("summary", mcp.Description("Condensation of the document")),
	mcp.WithString("description", mcp.Description("Caption for image documents")),
	mcp.WithString("version", mcp.Description("Cache-busting marker")),
)
