package ops

import (
	"testing"

	"github.com/pcathey/trellis/internal/errors"
)

func TestLinkCards(t *testing.T) {
	ctx, database, cfg := testEnv(t)

	p := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "parent"})
	c := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "child"})

	if _, err := LinkCards(ctx, database, cfg, LinkCardsInput{SourceID: p, TargetID: c}); err != nil {
		t.Fatalf("LinkCards() error = %v", err)
	}

	out, err := Context(ctx, database, cfg, ContextInput{CardID: c})
	if err != nil {
		t.Fatalf("Context() error = %v", err)
	}
	if len(out.Blocks) != 1 || out.Blocks[0].SourceID != p {
		t.Errorf("Context after link = %+v, want parent block", out.Blocks)
	}
}

func TestLinkCards_CycleRejected(t *testing.T) {
	ctx, database, cfg := testEnv(t)

	a := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "a"})
	b := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "b", ParentIDs: []string{a}})
	c := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "c", ParentIDs: []string{b}})

	// c is a descendant of a; making it a's parent would close a loop.
	if _, err := LinkCards(ctx, database, cfg, LinkCardsInput{SourceID: c, TargetID: a}); !errors.Is(err, errors.ErrCycle) {
		t.Errorf("cycle link error = %v, want CYCLE", err)
	}
	// Self link
	if _, err := LinkCards(ctx, database, cfg, LinkCardsInput{SourceID: a, TargetID: a}); !errors.Is(err, errors.ErrCycle) {
		t.Errorf("self link error = %v, want CYCLE", err)
	}
}

func TestLinkCards_MissingCard(t *testing.T) {
	ctx, database, cfg := testEnv(t)

	a := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "a"})
	if _, err := LinkCards(ctx, database, cfg, LinkCardsInput{SourceID: a, TargetID: "ghost"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("link to missing error = %v, want NOT_FOUND", err)
	}
}

func TestUnlinkCards(t *testing.T) {
	ctx, database, cfg := testEnv(t)

	p := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "parent"})
	c := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "child"})
	if _, err := LinkCards(ctx, database, cfg, LinkCardsInput{SourceID: p, TargetID: c}); err != nil {
		t.Fatalf("LinkCards() error = %v", err)
	}

	if _, err := UnlinkCards(ctx, database, cfg, LinkCardsInput{SourceID: p, TargetID: c}); err != nil {
		t.Fatalf("UnlinkCards() error = %v", err)
	}

	out, err := Context(ctx, database, cfg, ContextInput{CardID: c})
	if err != nil {
		t.Fatalf("Context() error = %v", err)
	}
	if len(out.Blocks) != 0 {
		t.Errorf("Context after unlink = %+v, want empty", out.Blocks)
	}
}

func TestSetParents(t *testing.T) {
	ctx, database, cfg := testEnv(t)

	p1 := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "p1"})
	p2 := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "p2"})
	c := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "child"})

	out, err := SetParents(ctx, database, cfg, SetParentsInput{ID: c, ParentIDs: []string{p2, p1}})
	if err != nil {
		t.Fatalf("SetParents() error = %v", err)
	}
	if len(out.ParentIDs) != 2 || out.ParentIDs[0] != p2 {
		t.Errorf("ParentIDs = %v, want order preserved", out.ParentIDs)
	}

	cctx, err := Context(ctx, database, cfg, ContextInput{CardID: c})
	if err != nil {
		t.Fatalf("Context() error = %v", err)
	}
	if len(cctx.Blocks) != 2 || cctx.Blocks[0].SourceID != p2 || cctx.Blocks[1].SourceID != p1 {
		t.Errorf("Context blocks = %+v, want p2 then p1", cctx.Blocks)
	}
}

func TestSetParents_CycleRejected(t *testing.T) {
	ctx, database, cfg := testEnv(t)

	a := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "a"})
	b := mustStore(t, ctx, database, cfg, StoreCardInput{Prompt: "b", ParentIDs: []string{a}})

	if _, err := SetParents(ctx, database, cfg, SetParentsInput{ID: a, ParentIDs: []string{b}}); !errors.Is(err, errors.ErrCycle) {
		t.Errorf("SetParents cycle error = %v, want CYCLE", err)
	}
	if _, err := SetParents(ctx, database, cfg, SetParentsInput{ID: a, ParentIDs: []string{a}}); !errors.Is(err, errors.ErrCycle) {
		t.Errorf("SetParents self error = %v, want CYCLE", err)
	}
}
