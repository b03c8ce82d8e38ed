package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/errors"
	"github.com/pcathey/trellis/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// StoreRequest represents the arguments for card_store.
type StoreRequest struct {
	Prompt        string   `json:"prompt"`
	Kind          string   `json:"kind,omitempty"`
	ParentIDs     []string `json:"parent_ids,omitempty"`
	Quote         *string  `json:"quote,omitempty"`
	QuoteSourceID *string  `json:"quote_source_id,omitempty"`
}

// FetchRequest represents the arguments for card_fetch.
type FetchRequest struct {
	ID             string `json:"id"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ListRequest represents the arguments for card_list.
type ListRequest struct {
	Limit int `json:"limit,omitempty"`
}

// UpdateRequest represents the arguments for card_update.
type UpdateRequest struct {
	ID            string  `json:"id"`
	Prompt        *string `json:"prompt,omitempty"`
	Summary       *string `json:"summary,omitempty"`
	Quote         *string `json:"quote,omitempty"`
	QuoteSourceID *string `json:"quote_source_id,omitempty"`
	ClearQuote    bool    `json:"clear_quote,omitempty"`
}

// DeleteRequest represents the arguments for card_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// LinkRequest represents the arguments for card_link and card_unlink.
type LinkRequest struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// SetParentsRequest represents the arguments for card_set_parents.
type SetParentsRequest struct {
	ID        string   `json:"id"`
	ParentIDs []string `json:"parent_ids"`
}

// AttachRequest represents the arguments for card_attach.
type AttachRequest struct {
	CardID       string  `json:"card_id"`
	AttachmentID string  `json:"attachment_id"`
	Kind         string  `json:"kind,omitempty"`
	Excerpt      *string `json:"excerpt,omitempty"`
	Summary      *string `json:"summary,omitempty"`
	Description  *string `json:"description,omitempty"`
	Version      *string `json:"version,omitempty"`
}

// DetachRequest represents the arguments for card_detach.
type DetachRequest struct {
	CardID       string `json:"card_id"`
	AttachmentID string `json:"attachment_id"`
}

// ToggleExcludeRequest represents the arguments for the exclusion toggles.
type ToggleExcludeRequest struct {
	CardID   string `json:"card_id"`
	TargetID string `json:"target_id"`
}

// ContextRequest represents the arguments for card_context.
type ContextRequest struct {
	CardID string `json:"card_id"`
}

// CommitRequest represents the arguments for card_commit.
type CommitRequest struct {
	CardID   string `json:"card_id"`
	Response string `json:"response"`
}

// SearchRequest represents the arguments for card_search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// VirtualCandidatesRequest represents the arguments for card_virtual_candidates.
type VirtualCandidatesRequest struct {
	CardID string `json:"card_id"`
	Query  string `json:"query,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// VirtualSetRequest represents the arguments for card_virtual_set.
type VirtualSetRequest struct {
	CardID string   `json:"card_id"`
	IDs    []string `json:"ids"`
}

// DocPutRequest represents the arguments for doc_put.
type DocPutRequest struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind,omitempty"`
	Excerpt     *string `json:"excerpt,omitempty"`
	Summary     *string `json:"summary,omitempty"`
	Description *string `json:"description,omitempty"`
	Version     *string `json:"version,omitempty"`
}

// Handler implementations

// HandleStore handles the card_store tool call.
func (h *Handlers) HandleStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[StoreRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.StoreCard(ctx, h.db, h.cfg, ops.StoreCardInput{
		Prompt:        input.Prompt,
		Kind:          input.Kind,
		ParentIDs:     input.ParentIDs,
		Quote:         input.Quote,
		QuoteSourceID: input.QuoteSourceID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the card_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[FetchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.FetchCard(ctx, h.db, h.cfg, ops.FetchCardInput{
		ID:             input.ID,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the card_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[ListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ListCards(ctx, h.db, h.cfg, ops.ListCardsInput{Limit: input.Limit})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the card_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[UpdateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.UpdateCard(ctx, h.db, h.cfg, ops.UpdateCardInput{
		ID:            input.ID,
		Prompt:        input.Prompt,
		Summary:       input.Summary,
		Quote:         input.Quote,
		QuoteSourceID: input.QuoteSourceID,
		ClearQuote:    input.ClearQuote,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the card_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[DeleteRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.DeleteCard(ctx, h.db, h.cfg, ops.DeleteCardInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLink handles the card_link tool call.
func (h *Handlers) HandleLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[LinkRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.LinkCards(ctx, h.db, h.cfg, ops.LinkCardsInput{
		SourceID: input.SourceID,
		TargetID: input.TargetID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUnlink handles the card_unlink tool call.
func (h *Handlers) HandleUnlink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[LinkRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.UnlinkCards(ctx, h.db, h.cfg, ops.LinkCardsInput{
		SourceID: input.SourceID,
		TargetID: input.TargetID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSetParents handles the card_set_parents tool call.
func (h *Handlers) HandleSetParents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[SetParentsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.SetParents(ctx, h.db, h.cfg, ops.SetParentsInput{
		ID:        input.ID,
		ParentIDs: input.ParentIDs,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleAttach handles the card_attach tool call.
func (h *Handlers) HandleAttach(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[AttachRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.AttachDoc(ctx, h.db, h.cfg, ops.AttachDocInput{
		CardID:       input.CardID,
		AttachmentID: input.AttachmentID,
		Kind:         input.Kind,
		Excerpt:      input.Excerpt,
		Summary:      input.Summary,
		Description:  input.Description,
		Version:      input.Version,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDetach handles the card_detach tool call.
func (h *Handlers) HandleDetach(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[DetachRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.DetachDoc(ctx, h.db, h.cfg, ops.DetachDocInput{
		CardID:       input.CardID,
		AttachmentID: input.AttachmentID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExcludeAncestor handles the card_exclude_ancestor tool call.
func (h *Handlers) HandleExcludeAncestor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[ToggleExcludeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ToggleExcludeAncestor(ctx, h.db, h.cfg, ops.ToggleExcludeInput{
		CardID:   input.CardID,
		TargetID: input.TargetID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExcludeAttachment handles the card_exclude_attachment tool call.
func (h *Handlers) HandleExcludeAttachment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[ToggleExcludeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ToggleExcludeAttachment(ctx, h.db, h.cfg, ops.ToggleExcludeInput{
		CardID:   input.CardID,
		TargetID: input.TargetID,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleContext handles the card_context tool call.
func (h *Handlers) HandleContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[ContextRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Context(ctx, h.db, h.cfg, ops.ContextInput{CardID: input.CardID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCommit handles the card_commit tool call.
func (h *Handlers) HandleCommit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[CommitRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.CommitResponse(ctx, h.db, h.cfg, ops.CommitResponseInput{
		CardID:   input.CardID,
		Response: input.Response,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSearch handles the card_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[SearchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.SearchCards(ctx, h.db, h.cfg, ops.SearchCardsInput{
		Query: input.Query,
		Limit: input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleVirtualCandidates handles the card_virtual_candidates tool call.
func (h *Handlers) HandleVirtualCandidates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[VirtualCandidatesRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.VirtualCandidates(ctx, h.db, h.cfg, ops.VirtualCandidatesInput{
		CardID: input.CardID,
		Query:  input.Query,
		Limit:  input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleVirtualSet handles the card_virtual_set tool call.
func (h *Handlers) HandleVirtualSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[VirtualSetRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.SetVirtualAncestors(ctx, h.db, h.cfg, ops.SetVirtualAncestorsInput{
		CardID: input.CardID,
		IDs:    input.IDs,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDocPut handles the doc_put tool call.
func (h *Handlers) HandleDocPut(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeInput[DocPutRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.PutDocument(ctx, h.db, h.cfg, ops.PutDocumentInput{
		ID:          input.ID,
		Kind:        input.Kind,
		Excerpt:     input.Excerpt,
		Summary:     input.Summary,
		Description: input.Description,
		Version:     input.Version,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if tErr, ok := err.(*errors.TrellisError); ok {
		errorObj := map[string]any{
			"code":    tErr.Code,
			"message": tErr.Message,
			"status":  tErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if tErr.Code != errors.ErrInternal && tErr.Details != nil {
			errorObj["details"] = tErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
