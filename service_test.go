package slidevault

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/slidevault/ai/mock"
	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/ingestion"
	"github.com/poiesic/slidevault/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	vault, err := Open("", WithInMemoryStorage(), WithAIProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { vault.Close() })

	service, err := NewService(vault, WithIngestPoolSize(2))
	require.NoError(t, err)
	t.Cleanup(service.Release)

	return service
}

func confidentialSlide(deckId core.ID, slideNumber int) *core.SlideRecord {
	return &core.SlideRecord{
		Id:             core.SlideIDFor(deckId, slideNumber),
		DeckId:         deckId,
		SlideNumber:    slideNumber,
		Title:          "Q3 Revenue",
		RawText:        []string{"Q3 Revenue", "Up 12% year over year"},
		Notes:          "Mention the EU numbers.",
		Summary:        "Quarterly revenue grew 12%.",
		Vector:         mock.DeterministicVector("Quarterly revenue grew 12%.", 384),
		Uploader:       "ana",
		UploadedAt:     time.Now().UTC().Add(-time.Minute),
		Classification: core.ClassificationConfidential,
	}
}

func TestGovernanceLifecycle(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	deckId := core.DeckIDFromName("q3-review")
	slide := confidentialSlide(deckId, 1)
	slideId := slide.Id

	report, err := service.UpsertSlides(ctx, nil, []*core.SlideRecord{slide})
	require.NoError(t, err)
	require.Len(t, report.Indexed, 1)

	// Search delivers a redacted view and never the raw content.
	results, err := service.Search(ctx, "quarterly revenue", nil, "ben", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	view := results[0].View
	require.NotNil(t, view)
	assert.Equal(t, slideId, view.SlideId)
	assert.Equal(t, "Quarterly revenue grew 12%.", view.Summary)

	// Without a grant, the full view is refused.
	_, err = service.FullView(ctx, slideId, "ben")
	assert.ErrorIs(t, err, core.ErrAccessDenied)

	// Request, then approve.
	requestId, err := service.RequestOriginal(ctx, slideId, "ben", "board prep")
	require.NoError(t, err)
	require.NotEmpty(t, requestId)

	grant, err := service.Approve(ctx, requestId, "dana", core.ScopeSlide, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "ben", grant.RequesterId)
	assert.Equal(t, core.ScopeSlide, grant.Scope)

	// With an active grant, the caller sees the original content.
	full, err := service.FullView(ctx, slideId, "ben")
	require.NoError(t, err)
	assert.Equal(t, []string{"Q3 Revenue", "Up 12% year over year"}, full.RawText)
	assert.Equal(t, "Mention the EU numbers.", full.Notes)

	// The grant does not extend to anyone else.
	_, err = service.FullView(ctx, slideId, "carol")
	assert.ErrorIs(t, err, core.ErrAccessDenied)

	// Revocation ends access immediately.
	require.NoError(t, service.Revoke(ctx, grant.Id, "dana"))
	_, err = service.FullView(ctx, slideId, "ben")
	assert.ErrorIs(t, err, core.ErrAccessDenied)

	// Every decision above landed in the audit trail, in order.
	entries, err := service.AuditEntries(ctx, 0)
	require.NoError(t, err)

	var actions []core.AuditAction
	for _, entry := range entries {
		actions = append(actions, entry.Action)
	}
	assert.Equal(t, []core.AuditAction{
		core.AuditActionSearch,
		core.AuditActionViewOriginal, // denied, no grant yet
		core.AuditActionRequestOriginal,
		core.AuditActionGrant,
		core.AuditActionViewOriginal, // granted
		core.AuditActionViewOriginal, // carol, denied
		core.AuditActionRevoke,
		core.AuditActionViewOriginal, // denied after revocation
	}, actions)

	assert.Equal(t, "1", entries[0].Outcome)
	assert.Equal(t, "denied", entries[1].Outcome)
	assert.Equal(t, "granted", entries[4].Outcome)
	assert.Equal(t, "revoked", entries[6].Outcome)
}

func TestDenyKeepsContentSealed(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	deckId := core.DeckIDFromName("q3-review")
	slide := confidentialSlide(deckId, 1)
	_, err := service.UpsertSlides(ctx, nil, []*core.SlideRecord{slide})
	require.NoError(t, err)

	requestId, err := service.RequestOriginal(ctx, slide.Id, "ben", "curiosity")
	require.NoError(t, err)

	require.NoError(t, service.Deny(ctx, requestId, "dana"))

	_, err = service.FullView(ctx, slide.Id, "ben")
	assert.ErrorIs(t, err, core.ErrAccessDenied)

	// A denied request is terminal; the requester may file a fresh one.
	fresh, err := service.RequestOriginal(ctx, slide.Id, "ben", "second attempt")
	require.NoError(t, err)
	assert.NotEqual(t, requestId, fresh)
}

func TestDeckScopeGrantViaService(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	deckId := core.DeckIDFromName("q3-review")
	first := confidentialSlide(deckId, 1)
	second := confidentialSlide(deckId, 2)
	second.Title = "Costs"
	second.RawText = []string{"Cost breakdown by region"}
	second.Summary = "Costs held flat across regions."
	second.Vector = mock.DeterministicVector(second.Summary, 384)

	_, err := service.UpsertSlides(ctx, nil, []*core.SlideRecord{first, second})
	require.NoError(t, err)

	requestId, err := service.RequestOriginal(ctx, first.Id, "ben", "board prep")
	require.NoError(t, err)
	_, err = service.Approve(ctx, requestId, "dana", core.ScopeDeck, time.Hour)
	require.NoError(t, err)

	// A deck-scoped grant covers every slide in the deck.
	_, err = service.FullView(ctx, first.Id, "ben")
	require.NoError(t, err)
	_, err = service.FullView(ctx, second.Id, "ben")
	require.NoError(t, err)
}

func TestRequestOriginalUnknownSlide(t *testing.T) {
	service := newTestService(t)

	_, err := service.RequestOriginal(context.Background(), core.ID(42), "ben", "why not")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIngestExtractedDeckEndToEnd(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	doc := `{
		"basic_info": {
			"file_path": "/decks/roadmap.pptx",
			"total_slides": 2,
			"slide_dimensions": {"width": 9144000, "height": 6858000}
		},
		"titles": [
			{"slide_number": 1, "title": "Platform Roadmap"},
			{"slide_number": 2, "title": "Milestones"}
		],
		"text_content": {
			"slides": [
				{"slide_number": 1, "text_elements": ["Platform roadmap for next year"]},
				{"slide_number": 2, "text_elements": ["Milestones and delivery dates"]}
			]
		}
	}`
	report, err := service.IngestExtractedDeck(ctx, strings.NewReader(doc), ingestion.DeckInput{
		Uploader:       "ana",
		Tags:           []string{"planning"},
		Classification: core.ClassificationInternal,
	})
	require.NoError(t, err)
	assert.Len(t, report.Indexed, 2)

	deckId := core.DeckIDFromName("roadmap")
	results, err := service.Search(ctx, "roadmap", nil, "ben", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, deckId, results[0].View.DeckId)

	stored, err := service.vault.SlideRepository().GetDeck(ctx, deckId)
	require.NoError(t, err)
	assert.Equal(t, "roadmap", stored.Name)
	assert.Equal(t, 2, stored.SlideCount)
}

func TestRemoveSlideAndDeck(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	deckId := core.DeckIDFromName("q3-review")
	first := confidentialSlide(deckId, 1)
	second := confidentialSlide(deckId, 2)
	second.Summary = "Costs held flat."
	second.Vector = mock.DeterministicVector(second.Summary, 384)
	deck := &core.Deck{Id: deckId, Name: "q3-review", SlideCount: 2, Uploader: "ana"}

	_, err := service.UpsertSlides(ctx, deck, []*core.SlideRecord{first, second})
	require.NoError(t, err)

	require.NoError(t, service.RemoveSlide(ctx, first.Id))
	_, err = service.vault.SlideRepository().GetSlideRecord(ctx, first.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 1, service.vault.Index().Len())

	// Removing an unknown slide is a no-op.
	require.NoError(t, service.RemoveSlide(ctx, core.ID(9999)))

	require.NoError(t, service.RemoveDeck(ctx, deckId))
	assert.Equal(t, 0, service.vault.Index().Len())
	_, err = service.vault.SlideRepository().GetDeck(ctx, deckId)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
