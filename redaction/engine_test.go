package redaction

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/storage"
	"github.com/poiesic/slidevault/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGate reports a fixed grant decision.
type stubGate struct {
	active bool
	err    error
}

func (s *stubGate) IsActive(ctx context.Context, slideId, deckId core.ID, requesterId string) (bool, error) {
	return s.active, s.err
}

func newTestEngine(t *testing.T, gate GrantChecker) (*Engine, storage.SlideRepository, storage.AuditLog) {
	t.Helper()

	slides, grants, audit, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		audit.Close()
		grants.Close()
		slides.Close()
		backend.Close()
	})

	engine, err := NewEngine(slides, gate, audit)
	require.NoError(t, err)
	return engine, slides, audit
}

func storedSlide(t *testing.T, slides storage.SlideRepository) *core.SlideRecord {
	t.Helper()
	deckId := core.DeckIDFromName("redact-deck")
	record := &core.SlideRecord{
		Id:          core.SlideIDFor(deckId, 1),
		DeckId:      deckId,
		SlideNumber: 1,
		Title:       "Q3 Revenue",
		RawText:     []string{"Q3 Revenue", "Up 12%"},
		Notes:       "do not share externally",
		LayoutName:  "Title and Content",
		Shapes: []core.Shape{
			{Name: "Title 1", Kind: "PLACEHOLDER", HasText: true, IsPlaceholder: true},
			{Name: "Picture 2", Kind: "PICTURE", IsImage: true},
		},
		Summary:        "Quarterly revenue grew 12%.",
		Vector:         []float32{1, 0},
		Uploader:       "ana",
		UploadedAt:     time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		Classification: core.ClassificationConfidential,
		ThumbnailRef:   "thumbs/redact-deck/1.png",
	}
	require.NoError(t, slides.UpsertSlideRecords(context.Background(), record))
	return record
}

func TestRedactedViewOmitsOriginalContent(t *testing.T) {
	engine, slides, _ := newTestEngine(t, &stubGate{})
	record := storedSlide(t, slides)

	view := engine.RedactedView(record)
	require.NotNil(t, view)

	assert.Equal(t, record.Id, view.SlideId)
	assert.Equal(t, record.DeckId, view.DeckId)
	assert.Equal(t, record.SlideNumber, view.SlideNumber)
	assert.Equal(t, record.Summary, view.Summary)
	assert.Equal(t, record.LayoutName, view.LayoutName)
	assert.Equal(t, 2, view.ShapeCount)
	assert.True(t, view.HasImages)
	assert.Equal(t, record.ThumbnailRef, view.ThumbnailRef)

	assert.Nil(t, engine.RedactedView(nil))
}

func TestRedactedViewForAuditsDelivery(t *testing.T) {
	engine, slides, audit := newTestEngine(t, &stubGate{})
	record := storedSlide(t, slides)
	ctx := context.Background()

	// No grant needed for the redacted view.
	view, err := engine.RedactedViewFor(ctx, record.Id, "ben")
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, record.Summary, view.Summary)

	entries, err := audit.Entries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.AuditActionViewRedacted, entries[0].Action)
	assert.Equal(t, "delivered", entries[0].Outcome)
	assert.Equal(t, "ben", entries[0].ActorId)

	// Unknown slides produce no audit entry.
	_, err = engine.RedactedViewFor(ctx, core.ID(9999), "ben")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	entries, err = audit.Entries(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFullViewWithActiveGrant(t *testing.T) {
	engine, slides, audit := newTestEngine(t, &stubGate{active: true})
	record := storedSlide(t, slides)

	got, err := engine.FullView(context.Background(), record.Id, "bo")
	require.NoError(t, err)
	assert.Equal(t, record.RawText, got.RawText)
	assert.Equal(t, record.Notes, got.Notes)

	entries, err := audit.Entries(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.AuditActionViewOriginal, entries[0].Action)
	assert.Equal(t, "granted", entries[0].Outcome)
	assert.Equal(t, "bo", entries[0].ActorId)
	assert.Equal(t, record.Id, entries[0].SlideId)
}

func TestFullViewDeniedWithoutGrant(t *testing.T) {
	engine, slides, audit := newTestEngine(t, &stubGate{active: false})
	record := storedSlide(t, slides)

	_, err := engine.FullView(context.Background(), record.Id, "bo")
	require.ErrorIs(t, err, core.ErrAccessDenied)

	// The denial itself is audited.
	entries, auditErr := audit.Entries(context.Background(), 0)
	require.NoError(t, auditErr)
	require.Len(t, entries, 1)
	assert.Equal(t, core.AuditActionViewOriginal, entries[0].Action)
	assert.Equal(t, "denied", entries[0].Outcome)
}

func TestFullViewUnknownSlide(t *testing.T) {
	engine, _, audit := newTestEngine(t, &stubGate{active: true})

	_, err := engine.FullView(context.Background(), core.ID(404), "bo")
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Nothing was disclosed, nothing is audited.
	entries, auditErr := audit.Entries(context.Background(), 0)
	require.NoError(t, auditErr)
	assert.Empty(t, entries)
}
