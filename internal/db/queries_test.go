package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/pcathey/trellis/internal/card"
	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/errors"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func newTestCard(id string) *card.Card {
	now := time.Now().Unix()
	return &card.Card{
		ID:        id,
		Kind:      card.KindAnswerable,
		Prompt:    "prompt for " + id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestInsertAndGetCard(t *testing.T) {
	db := testDB(t)

	c := newTestCard("card-1")
	c.Response = strPtr("a response")
	c.Quote = strPtr("a quote")
	c.QuoteSourceID = strPtr("card-0")
	c.ParentIDs = []string{"p1", "p2"}
	c.ExcludedAncestorIDs = []string{"x1"}
	c.VirtualAncestorIDs = []string{"v1", "v2"}

	if err := InsertCard(db, c); err != nil {
		t.Fatalf("InsertCard() error = %v", err)
	}

	got, err := GetCard(db, "card-1", false)
	if err != nil {
		t.Fatalf("GetCard() error = %v", err)
	}

	if got.Kind != card.KindAnswerable || got.Prompt != c.Prompt {
		t.Errorf("GetCard() = %+v, want round-tripped fields", got)
	}
	if got.Response == nil || *got.Response != "a response" {
		t.Errorf("Response = %v, want \"a response\"", got.Response)
	}
	if len(got.ParentIDs) != 2 || got.ParentIDs[0] != "p1" || got.ParentIDs[1] != "p2" {
		t.Errorf("ParentIDs = %v, want order preserved", got.ParentIDs)
	}
	if len(got.ExcludedAncestorIDs) != 1 || got.ExcludedAncestorIDs[0] != "x1" {
		t.Errorf("ExcludedAncestorIDs = %v", got.ExcludedAncestorIDs)
	}
	if len(got.VirtualAncestorIDs) != 2 {
		t.Errorf("VirtualAncestorIDs = %v", got.VirtualAncestorIDs)
	}
	if got.IsStale {
		t.Error("new card must not be stale")
	}
}

func TestInsertCard_DuplicateID(t *testing.T) {
	db := testDB(t)

	if err := InsertCard(db, newTestCard("dup")); err != nil {
		t.Fatalf("InsertCard() error = %v", err)
	}
	err := InsertCard(db, newTestCard("dup"))
	if err != ErrUniqueConstraint {
		t.Errorf("duplicate insert error = %v, want ErrUniqueConstraint", err)
	}
}

func TestGetCard_NotFound(t *testing.T) {
	db := testDB(t)

	_, err := GetCard(db, "ghost", false)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetCard(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestUpdateCard(t *testing.T) {
	db := testDB(t)

	c := newTestCard("card-1")
	if err := InsertCard(db, c); err != nil {
		t.Fatalf("InsertCard() error = %v", err)
	}

	c.Prompt = "updated prompt"
	c.Summary = strPtr("a summary")
	c.ExcludedAttachmentIDs = []string{"doc-1"}
	if err := UpdateCard(db, c); err != nil {
		t.Fatalf("UpdateCard() error = %v", err)
	}

	got, err := GetCard(db, "card-1", false)
	if err != nil {
		t.Fatalf("GetCard() error = %v", err)
	}
	if got.Prompt != "updated prompt" || got.Summary == nil || *got.Summary != "a summary" {
		t.Errorf("GetCard() after update = %+v", got)
	}
	if len(got.ExcludedAttachmentIDs) != 1 {
		t.Errorf("ExcludedAttachmentIDs = %v", got.ExcludedAttachmentIDs)
	}
}

func TestUpdateCard_NotFound(t *testing.T) {
	db := testDB(t)

	err := UpdateCard(db, newTestCard("ghost"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("UpdateCard(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestCommitResponse(t *testing.T) {
	db := testDB(t)

	c := newTestCard("card-1")
	c.IsStale = true
	if err := InsertCard(db, c); err != nil {
		t.Fatalf("InsertCard() error = %v", err)
	}

	if err := CommitResponse(db, "card-1", "generated text", "fp-abc"); err != nil {
		t.Fatalf("CommitResponse() error = %v", err)
	}

	got, err := GetCard(db, "card-1", false)
	if err != nil {
		t.Fatalf("GetCard() error = %v", err)
	}
	if got.Response == nil || *got.Response != "generated text" {
		t.Errorf("Response = %v", got.Response)
	}
	if got.LastContextFingerprint == nil || *got.LastContextFingerprint != "fp-abc" {
		t.Errorf("LastContextFingerprint = %v", got.LastContextFingerprint)
	}
	if got.IsStale {
		t.Error("commit must clear the stale flag")
	}
}

func TestSetStale(t *testing.T) {
	db := testDB(t)

	c := newTestCard("card-1")
	if err := InsertCard(db, c); err != nil {
		t.Fatalf("InsertCard() error = %v", err)
	}
	before, _ := GetCard(db, "card-1", false)

	if err := SetStale(db, "card-1", true); err != nil {
		t.Fatalf("SetStale() error = %v", err)
	}

	got, err := GetCard(db, "card-1", false)
	if err != nil {
		t.Fatalf("GetCard() error = %v", err)
	}
	if !got.IsStale {
		t.Error("stale flag not set")
	}
	if got.UpdatedAt != before.UpdatedAt {
		t.Error("SetStale must not bump updated_at")
	}
}

func TestSoftDeleteCard(t *testing.T) {
	db := testDB(t)

	if err := InsertCard(db, newTestCard("card-1")); err != nil {
		t.Fatalf("InsertCard() error = %v", err)
	}
	if err := SoftDeleteCard(db, "card-1"); err != nil {
		t.Fatalf("SoftDeleteCard() error = %v", err)
	}

	if _, err := GetCard(db, "card-1", false); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetCard(deleted) error = %v, want NOT_FOUND", err)
	}

	got, err := GetCard(db, "card-1", true)
	if err != nil {
		t.Fatalf("GetCard(includeDeleted) error = %v", err)
	}
	if got.DeletedAt == nil {
		t.Error("DeletedAt not set")
	}

	// Double delete reports not found
	if err := SoftDeleteCard(db, "card-1"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second SoftDeleteCard() error = %v, want NOT_FOUND", err)
	}
}

func TestListCards_ExcludesDeleted(t *testing.T) {
	db := testDB(t)

	for _, id := range []string{"a", "b", "c"} {
		if err := InsertCard(db, newTestCard(id)); err != nil {
			t.Fatalf("InsertCard(%s) error = %v", id, err)
		}
	}
	if err := SoftDeleteCard(db, "b"); err != nil {
		t.Fatalf("SoftDeleteCard() error = %v", err)
	}

	cards, err := ListCards(db, 0)
	if err != nil {
		t.Fatalf("ListCards() error = %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("ListCards() = %d cards, want 2", len(cards))
	}
	for _, c := range cards {
		if c.ID == "b" {
			t.Error("soft-deleted card listed")
		}
	}
}

func TestEdges_InsertionOrderPreserved(t *testing.T) {
	db := testDB(t)

	pairs := [][2]string{{"p2", "c"}, {"p1", "c"}, {"p3", "c"}}
	for _, p := range pairs {
		if err := InsertEdge(db, p[0], p[1]); err != nil {
			t.Fatalf("InsertEdge(%v) error = %v", p, err)
		}
	}

	edges, err := AllEdges(db)
	if err != nil {
		t.Fatalf("AllEdges() error = %v", err)
	}
	if len(edges) != 3 {
		t.Fatalf("AllEdges() = %d edges, want 3", len(edges))
	}
	for i, p := range pairs {
		if edges[i].SourceID != p[0] {
			t.Errorf("edge %d source = %s, want %s (insertion order)", i, edges[i].SourceID, p[0])
		}
	}
}

func TestInsertEdge_Idempotent(t *testing.T) {
	db := testDB(t)

	if err := InsertEdge(db, "p", "c"); err != nil {
		t.Fatalf("InsertEdge() error = %v", err)
	}
	if err := InsertEdge(db, "p", "c"); err != nil {
		t.Fatalf("second InsertEdge() error = %v", err)
	}

	edges, err := AllEdges(db)
	if err != nil {
		t.Fatalf("AllEdges() error = %v", err)
	}
	if len(edges) != 1 {
		t.Errorf("AllEdges() = %d edges, want 1", len(edges))
	}
}

func TestDeleteEdge(t *testing.T) {
	db := testDB(t)

	if err := InsertEdge(db, "p", "c"); err != nil {
		t.Fatalf("InsertEdge() error = %v", err)
	}
	if err := DeleteEdge(db, "p", "c"); err != nil {
		t.Fatalf("DeleteEdge() error = %v", err)
	}
	if err := DeleteEdge(db, "p", "c"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("DeleteEdge(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestAttachments_RoundTrip(t *testing.T) {
	db := testDB(t)

	a := &card.Attachment{
		AttachmentID: "doc-1",
		CardID:       "card-1",
		Kind:         card.AttachmentText,
		Excerpt:      strPtr("excerpt"),
		Version:      strPtr("v1"),
	}
	if err := InsertAttachment(db, a); err != nil {
		t.Fatalf("InsertAttachment() error = %v", err)
	}

	// Same document on another card is fine; same pair is not.
	b := &card.Attachment{AttachmentID: "doc-1", CardID: "card-2", Kind: card.AttachmentText}
	if err := InsertAttachment(db, b); err != nil {
		t.Fatalf("InsertAttachment(other card) error = %v", err)
	}
	if err := InsertAttachment(db, a); err != ErrUniqueConstraint {
		t.Errorf("duplicate attach error = %v, want ErrUniqueConstraint", err)
	}

	got, err := AttachmentsFor(db, "card-1")
	if err != nil {
		t.Fatalf("AttachmentsFor() error = %v", err)
	}
	if len(got) != 1 || got[0].Excerpt == nil || *got[0].Excerpt != "excerpt" {
		t.Errorf("AttachmentsFor() = %+v", got)
	}

	if err := DeleteAttachment(db, "doc-1", "card-1"); err != nil {
		t.Fatalf("DeleteAttachment() error = %v", err)
	}
	got, _ = AttachmentsFor(db, "card-1")
	if len(got) != 0 {
		t.Errorf("attachments after delete = %+v, want none", got)
	}
}

func TestDocuments_Upsert(t *testing.T) {
	db := testDB(t)

	d := &card.Document{ID: "doc-1", Kind: card.AttachmentText, Excerpt: strPtr("v1 excerpt")}
	if err := UpsertDocument(db, d); err != nil {
		t.Fatalf("UpsertDocument() error = %v", err)
	}

	// Second upsert replaces fields wholesale: dropped summary stays dropped.
	d2 := &card.Document{ID: "doc-1", Kind: card.AttachmentText, Summary: strPtr("new summary")}
	if err := UpsertDocument(db, d2); err != nil {
		t.Fatalf("second UpsertDocument() error = %v", err)
	}

	got, err := GetDocument(db, "doc-1")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if got.Excerpt != nil {
		t.Errorf("Excerpt = %v, want nil after replacing upsert", got.Excerpt)
	}
	if got.Summary == nil || *got.Summary != "new summary" {
		t.Errorf("Summary = %v", got.Summary)
	}
}

func TestSearchProvider(t *testing.T) {
	db := testDB(t)

	c1 := newTestCard("card-1")
	c1.Prompt = "why is the sky blue"
	c1.Response = strPtr("Rayleigh scattering favors short wavelengths")
	c2 := newTestCard("card-2")
	c2.Prompt = "how do plants grow"
	for _, c := range []*card.Card{c1, c2} {
		if err := InsertCard(db, c); err != nil {
			t.Fatalf("InsertCard() error = %v", err)
		}
	}

	p := &SearchProvider{DB: db}
	hits, err := p.Search("rayleigh scattering", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].CardID != "card-1" {
		t.Fatalf("Search() = %+v, want card-1 only", hits)
	}
	if hits[0].Score <= 0 || hits[0].Score > 1 {
		t.Errorf("Score = %f, want in (0, 1]", hits[0].Score)
	}
	if hits[0].Preview == "" {
		t.Error("Preview empty")
	}
}

func TestSearchProvider_MatchesSummary(t *testing.T) {
	db := testDB(t)

	c := newTestCard("card-1")
	c.Prompt = "why is the sky blue"
	c.Response = strPtr("a long treatment of atmospheric optics")
	c.Summary = strPtr("rayleigh scattering in one line")
	if err := InsertCard(db, c); err != nil {
		t.Fatalf("InsertCard() error = %v", err)
	}

	p := &SearchProvider{DB: db}
	hits, err := p.Search("rayleigh", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].CardID != "card-1" {
		t.Fatalf("Search() = %+v, want a hit via the summary column", hits)
	}
}

func TestSearchProvider_UpdateReindexes(t *testing.T) {
	db := testDB(t)

	c := newTestCard("card-1")
	c.Prompt = "placeholder"
	if err := InsertCard(db, c); err != nil {
		t.Fatalf("InsertCard() error = %v", err)
	}

	p := &SearchProvider{DB: db}
	if hits, _ := p.Search("mitochondria", 10); len(hits) != 0 {
		t.Fatalf("unexpected hits before update: %+v", hits)
	}

	c.Prompt = "what does the mitochondria do"
	if err := UpdateCard(db, c); err != nil {
		t.Fatalf("UpdateCard() error = %v", err)
	}
	hits, err := p.Search("mitochondria", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("Search() after update = %+v, want 1 hit", hits)
	}
}

func TestSearchProvider_DeletedCardsHidden(t *testing.T) {
	db := testDB(t)

	c := newTestCard("card-1")
	c.Prompt = "photosynthesis basics"
	if err := InsertCard(db, c); err != nil {
		t.Fatalf("InsertCard() error = %v", err)
	}
	if err := SoftDeleteCard(db, "card-1"); err != nil {
		t.Fatalf("SoftDeleteCard() error = %v", err)
	}

	p := &SearchProvider{DB: db}
	hits, err := p.Search("photosynthesis", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Search() = %+v, want none for deleted card", hits)
	}
}

func TestSearchProvider_QuerySanitized(t *testing.T) {
	db := testDB(t)

	c := newTestCard("card-1")
	c.Prompt = "near miss"
	if err := InsertCard(db, c); err != nil {
		t.Fatalf("InsertCard() error = %v", err)
	}

	p := &SearchProvider{DB: db}
	// FTS operators and stray quotes must be treated as literal tokens.
	if _, err := p.Search(`NEAR("a" "b")`, 10); err != nil {
		t.Errorf("Search with operator syntax error = %v, want sanitized query", err)
	}
	if hits, err := p.Search("", 10); err != nil || hits != nil {
		t.Errorf("Search(empty) = %+v, %v; want no hits, no error", hits, err)
	}
}

func TestLoadSnapshot(t *testing.T) {
	db := testDB(t)

	p := newTestCard("p")
	p.Response = strPtr("parent response")
	c := newTestCard("c")
	for _, cc := range []*card.Card{p, c} {
		if err := InsertCard(db, cc); err != nil {
			t.Fatalf("InsertCard() error = %v", err)
		}
	}
	if err := InsertEdge(db, "p", "c"); err != nil {
		t.Fatalf("InsertEdge() error = %v", err)
	}
	if err := InsertAttachment(db, &card.Attachment{
		AttachmentID: "doc-1", CardID: "p", Kind: card.AttachmentText,
	}); err != nil {
		t.Fatalf("InsertAttachment() error = %v", err)
	}
	if err := UpsertDocument(db, &card.Document{
		ID: "doc-1", Kind: card.AttachmentText, Excerpt: strPtr("doc excerpt"),
	}); err != nil {
		t.Fatalf("UpsertDocument() error = %v", err)
	}

	snap, docs, err := LoadSnapshot(db, config.DefaultConfig())
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}

	parents := snap.ParentsOf("c")
	if len(parents) != 1 || parents[0].ID != "p" {
		t.Fatalf("ParentsOf(c) = %+v, want [p] via edge", parents)
	}
	if len(parents[0].Attachments) != 1 {
		t.Errorf("p attachments = %+v, want doc-1 populated", parents[0].Attachments)
	}
	if docs.Document("doc-1") == nil {
		t.Error("document store entry missing from snapshot")
	}
}
