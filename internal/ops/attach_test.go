package ops

import (
	"strings"
	"testing"

	"github.com/pcathey/trellis/internal/errors"
)

func TestAttachDoc(t *testing.T) {
	ctx, database, cfg := testEnv(t)

	id := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "q"})
	_, err := AttachDoc(ctx, database, cfg, AttachDocInput{
		CardID:       id,
		AttachmentID: "doc-1",
		Excerpt:      strPtr("cached excerpt"),
	})
	if err != nil {
		t.Fatalf("AttachDoc() error = %v", err)
	}

	out, err := Context(ctx, database, cfg, ContextInput{CardID: id})
	if err != nil {
		t.Fatalf("Context() error = %v", err)
	}
	if len(out.Blocks) != 1 || !out.Blocks[0].FromAttachment || out.Blocks[0].Text != "cached excerpt" {
		t.Errorf("Context = %+v, want one attachment block", out.Blocks)
	}
}

func TestAttachDoc_MissingCard(t *testing.T) {
	ctx, database, cfg := testEnv(t)

	_, err := AttachDoc(ctx, database, cfg, AttachDocInput{CardID: "ghost", AttachmentID: "doc-1"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("AttachDoc(missing card) error = %v, want NOT_FOUND", err)
	}
}

func TestDetachDoc(t *testing.T) {
	ctx, database, cfg := testEnv(t)

	id := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "q"})
	if _, err := AttachDoc(ctx, database, cfg, AttachDocInput{CardID: id, AttachmentID: "doc-1"}); err != nil {
		t.Fatalf("AttachDoc() error = %v", err)
	}
	if _, err := DetachDoc(ctx, database, cfg, DetachDocInput{CardID: id, AttachmentID: "doc-1"}); err != nil {
		t.Fatalf("DetachDoc() error = %v", err)
	}

	out, err := Context(ctx, database, cfg, ContextInput{CardID: id})
	if err != nil {
		t.Fatalf("Context() error = %v", err)
	}
	if len(out.Blocks) != 0 {
		t.Errorf("Context after detach = %+v, want empty", out.Blocks)
	}
}

func TestPutDocument_OverridesCachedCopyAndInvalidates(t *testing.T) {
	ctx, database, cfg := testEnv(t)

	id := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "q"})
	if _, err := AttachDoc(ctx, database, cfg, AttachDocInput{
		CardID: id, AttachmentID: "doc-1", Excerpt: strPtr("cached excerpt"),
	}); err != nil {
		t.Fatalf("AttachDoc() error = %v", err)
	}
	if _, err := CommitResponse(ctx, database, cfg, CommitResponseInput{CardID: id, Response: "answer"}); err != nil {
		t.Fatalf("CommitResponse() error = %v", err)
	}

	// Async pipeline lands the authoritative excerpt.
	if _, err := PutDocument(ctx, database, cfg, PutDocumentInput{
		ID: "doc-1", Excerpt: strPtr("authoritative excerpt"),
	}); err != nil {
		t.Fatalf("PutDocument() error = %v", err)
	}

	out, err := Context(ctx, database, cfg, ContextInput{CardID: id})
	if err != nil {
		t.Fatalf("Context() error = %v", err)
	}
	if !strings.Contains(out.ContextText, "authoritative excerpt") {
		t.Error("authoritative surrogate not surfaced")
	}
	if !out.IsStale {
		t.Error("surrogate change must invalidate the committed response")
	}
}

func TestToggleExcludeAttachment(t *testing.T) {
	ctx, database, cfg := testEnv(t)

	id := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "q"})
	if _, err := AttachDoc(ctx, database, cfg, AttachDocInput{
		CardID: id, AttachmentID: "doc-1", Excerpt: strPtr("text"),
	}); err != nil {
		t.Fatalf("AttachDoc() error = %v", err)
	}

	out, err := ToggleExcludeAttachment(ctx, database, cfg, ToggleExcludeInput{CardID: id, TargetID: "doc-1"})
	if err != nil {
		t.Fatalf("ToggleExcludeAttachment() error = %v", err)
	}
	if !out.Excluded {
		t.Error("first toggle should exclude")
	}

	cctx, err := Context(ctx, database, cfg, ContextInput{CardID: id})
	if err != nil {
		t.Fatalf("Context() error = %v", err)
	}
	if len(cctx.Blocks) != 0 {
		t.Errorf("Context with excluded attachment = %+v, want empty", cctx.Blocks)
	}

	out, err = ToggleExcludeAttachment(ctx, database, cfg, ToggleExcludeInput{CardID: id, TargetID: "doc-1"})
	if err != nil {
		t.Fatalf("second ToggleExcludeAttachment() error = %v", err)
	}
	if out.Excluded {
		t.Error("second toggle should include again")
	}
}
