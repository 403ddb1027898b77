package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/storage"
)

func makeSlide(deckId core.ID, slideNumber int, title string) *core.SlideRecord {
	return &core.SlideRecord{
		Id:             core.SlideIDFor(deckId, slideNumber),
		DeckId:         deckId,
		SlideNumber:    slideNumber,
		Title:          title,
		RawText:        []string{title + " body"},
		Uploader:       "ana",
		UploadedAt:     time.Now().UTC().Truncate(time.Microsecond),
		Classification: core.ClassificationInternal,
	}
}

func TestSlideRecordBasics(t *testing.T) {
	slides, grants, audit, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		audit.Close()
		grants.Close()
		slides.Close()
		backend.Close()
	}()

	ctx := context.Background()
	deckId := core.DeckIDFromName("q3-review")
	record := makeSlide(deckId, 1, "Q3 Revenue")

	if err := slides.UpsertSlideRecords(ctx, record); err != nil {
		t.Fatalf("Failed to upsert slide record: %v", err)
	}
	if record.InsertedAt.IsZero() || record.UpdatedAt.IsZero() {
		t.Fatal("Expected insert to stamp InsertedAt and UpdatedAt")
	}

	retrieved, err := slides.GetSlideRecord(ctx, record.Id)
	if err != nil {
		t.Fatalf("Failed to get slide record: %v", err)
	}
	if retrieved.Title != "Q3 Revenue" {
		t.Fatalf("Expected 'Q3 Revenue', got '%s'", retrieved.Title)
	}
	if retrieved.DeckId != deckId {
		t.Fatalf("Expected deck %d, got %d", deckId, retrieved.DeckId)
	}
}

func TestGetSlideRecordNotFound(t *testing.T) {
	slides, grants, audit, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { audit.Close(); grants.Close(); slides.Close(); backend.Close() }()

	_, err = slides.GetSlideRecord(context.Background(), core.ID(12345))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpsertIsFullReplace(t *testing.T) {
	slides, grants, audit, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { audit.Close(); grants.Close(); slides.Close(); backend.Close() }()

	ctx := context.Background()
	deckId := core.DeckIDFromName("q3-review")
	record := makeSlide(deckId, 1, "Q3 Revenue")
	record.Notes = "presenter notes"
	record.Tags = []string{"finance"}

	if err := slides.UpsertSlideRecords(ctx, record); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	// Stored timestamps carry microsecond precision.
	firstInserted := record.InsertedAt.Truncate(time.Microsecond)

	// Re-upsert the same id with different content and no notes.
	replacement := makeSlide(deckId, 1, "Q3 Revenue, Revised")
	if err := slides.UpsertSlideRecords(ctx, replacement); err != nil {
		t.Fatalf("Failed to re-upsert: %v", err)
	}

	retrieved, err := slides.GetSlideRecord(ctx, record.Id)
	if err != nil {
		t.Fatalf("Failed to get slide record: %v", err)
	}
	if retrieved.Title != "Q3 Revenue, Revised" {
		t.Fatalf("Expected replaced title, got '%s'", retrieved.Title)
	}
	if retrieved.Notes != "" {
		t.Fatalf("Expected notes cleared by full replace, got '%s'", retrieved.Notes)
	}
	if len(retrieved.Tags) != 0 {
		t.Fatalf("Expected tags cleared by full replace, got %v", retrieved.Tags)
	}
	if !retrieved.InsertedAt.Equal(firstInserted) {
		t.Fatalf("Expected InsertedAt preserved across replace: %v vs %v",
			retrieved.InsertedAt, firstInserted)
	}
	if !retrieved.UpdatedAt.After(retrieved.InsertedAt) && !retrieved.UpdatedAt.Equal(retrieved.InsertedAt) {
		t.Fatal("Expected UpdatedAt at or after InsertedAt")
	}
}

func TestGetSlideRecordsByDeck(t *testing.T) {
	slides, grants, audit, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { audit.Close(); grants.Close(); slides.Close(); backend.Close() }()

	ctx := context.Background()
	deckId := core.DeckIDFromName("q3-review")
	otherDeck := core.DeckIDFromName("roadmap")

	// Insert out of order, plus a slide from an unrelated deck.
	records := []*core.SlideRecord{
		makeSlide(deckId, 3, "Outlook"),
		makeSlide(deckId, 1, "Q3 Revenue"),
		makeSlide(otherDeck, 1, "Roadmap Intro"),
		makeSlide(deckId, 2, "Costs"),
	}
	if err := slides.UpsertSlideRecords(ctx, records...); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	results, err := slides.GetSlideRecordsByDeck(ctx, deckId)
	if err != nil {
		t.Fatalf("Failed to get records by deck: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(results))
	}
	for i, want := range []string{"Q3 Revenue", "Costs", "Outlook"} {
		if results[i].Title != want {
			t.Errorf("Position %d: expected '%s', got '%s'", i, want, results[i].Title)
		}
	}
}

func TestDeleteSlideRecords(t *testing.T) {
	slides, grants, audit, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { audit.Close(); grants.Close(); slides.Close(); backend.Close() }()

	ctx := context.Background()
	deckId := core.DeckIDFromName("q3-review")
	first := makeSlide(deckId, 1, "Q3 Revenue")
	second := makeSlide(deckId, 2, "Costs")
	if err := slides.UpsertSlideRecords(ctx, first, second); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	// Deleting a missing id alongside a real one is not an error.
	if err := slides.DeleteSlideRecords(ctx, first.Id, core.ID(99999)); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	if _, err := slides.GetSlideRecord(ctx, first.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected deleted record gone, got %v", err)
	}

	remaining, err := slides.GetSlideRecordsByDeck(ctx, deckId)
	if err != nil {
		t.Fatalf("Failed to get records by deck: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Title != "Costs" {
		t.Fatalf("Expected only 'Costs' to remain, got %v", remaining)
	}
}

func TestDeleteDeckCascade(t *testing.T) {
	slides, grants, audit, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { audit.Close(); grants.Close(); slides.Close(); backend.Close() }()

	ctx := context.Background()
	deckId := core.DeckIDFromName("q3-review")
	otherDeck := core.DeckIDFromName("roadmap")

	deck := &core.Deck{Id: deckId, Name: "q3-review", SlideCount: 2, Uploader: "ana"}
	if err := slides.UpsertDeck(ctx, deck); err != nil {
		t.Fatalf("Failed to upsert deck: %v", err)
	}
	records := []*core.SlideRecord{
		makeSlide(deckId, 1, "Q3 Revenue"),
		makeSlide(deckId, 2, "Costs"),
		makeSlide(otherDeck, 1, "Roadmap Intro"),
	}
	if err := slides.UpsertSlideRecords(ctx, records...); err != nil {
		t.Fatalf("Failed to upsert slides: %v", err)
	}

	removed, err := slides.DeleteDeck(ctx, deckId)
	if err != nil {
		t.Fatalf("Failed to delete deck: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("Expected 2 removed slide ids, got %d", len(removed))
	}

	if _, err := slides.GetDeck(ctx, deckId); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected deck metadata gone, got %v", err)
	}
	for _, id := range removed {
		if _, err := slides.GetSlideRecord(ctx, id); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Expected slide %d gone, got %v", id, err)
		}
	}

	// The unrelated deck is untouched.
	kept, err := slides.GetSlideRecordsByDeck(ctx, otherDeck)
	if err != nil {
		t.Fatalf("Failed to get unrelated deck: %v", err)
	}
	if len(kept) != 1 {
		t.Fatalf("Expected 1 unrelated slide to survive, got %d", len(kept))
	}
}

func TestForEachSlideRecord(t *testing.T) {
	slides, grants, audit, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { audit.Close(); grants.Close(); slides.Close(); backend.Close() }()

	ctx := context.Background()
	deckId := core.DeckIDFromName("q3-review")
	if err := slides.UpsertSlideRecords(ctx,
		makeSlide(deckId, 1, "Q3 Revenue"),
		makeSlide(deckId, 2, "Costs"),
	); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	seen := 0
	err = slides.ForEachSlideRecord(ctx, func(record *core.SlideRecord) error {
		seen++
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachSlideRecord failed: %v", err)
	}
	if seen != 2 {
		t.Fatalf("Expected to visit 2 records, got %d", seen)
	}

	// An error from the callback stops the scan and propagates.
	sentinel := errors.New("stop")
	err = slides.ForEachSlideRecord(ctx, func(record *core.SlideRecord) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected callback error to propagate, got %v", err)
	}
}

func TestDeckMetadataRoundTrip(t *testing.T) {
	slides, grants, audit, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { audit.Close(); grants.Close(); slides.Close(); backend.Close() }()

	ctx := context.Background()
	deck := &core.Deck{
		Id:          core.DeckIDFromName("q3-review"),
		Name:        "q3-review",
		SlideCount:  12,
		SlideWidth:  9144000,
		SlideHeight: 6858000,
		Uploader:    "ana",
		UploadedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := slides.UpsertDeck(ctx, deck); err != nil {
		t.Fatalf("Failed to upsert deck: %v", err)
	}

	retrieved, err := slides.GetDeck(ctx, deck.Id)
	if err != nil {
		t.Fatalf("Failed to get deck: %v", err)
	}
	if retrieved.Name != deck.Name || retrieved.SlideCount != deck.SlideCount {
		t.Fatalf("Deck metadata mismatch: %+v", retrieved)
	}
	if retrieved.SlideWidth != deck.SlideWidth || retrieved.SlideHeight != deck.SlideHeight {
		t.Fatalf("Deck dimensions mismatch: %+v", retrieved)
	}
}
