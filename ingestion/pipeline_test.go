package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/slidevault/ai/mock"
	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/index"
	"github.com/poiesic/slidevault/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, provider *mock.MockProvider, opts ...Option) (*Pipeline, *index.Index) {
	t.Helper()

	slides, grants, audit, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		audit.Close()
		grants.Close()
		slides.Close()
		backend.Close()
	})

	idx := index.New()
	pipeline, err := NewPipeline(slides, idx, provider, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return pipeline, idx
}

func pipelineRecord(deckId core.ID, slideNumber int, text string) *core.SlideRecord {
	return &core.SlideRecord{
		Id:             core.SlideIDFor(deckId, slideNumber),
		DeckId:         deckId,
		SlideNumber:    slideNumber,
		Title:          text,
		RawText:        []string{text + " details"},
		Uploader:       "ana",
		UploadedAt:     time.Now().UTC().Add(-time.Minute),
		Classification: core.ClassificationInternal,
	}
}

func TestNewPipelineValidation(t *testing.T) {
	slides, grants, audit, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { audit.Close(); grants.Close(); slides.Close(); backend.Close() })

	provider := mock.NewMockProvider().(*mock.MockProvider)
	idx := index.New()

	_, err = NewPipeline(nil, idx, provider)
	assert.ErrorIs(t, err, ErrSlideRepositoryRequired)

	_, err = NewPipeline(slides, nil, provider)
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = NewPipeline(slides, idx, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestIngestDeckEnrichesAndIndexes(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	// Serial pool keeps the mock call counters exact.
	pipeline, idx := newTestPipeline(t, provider, WithPoolSize(1))

	deckId := core.DeckIDFromName("q3-review")
	deck := &core.Deck{Id: deckId, Name: "q3-review", SlideCount: 2, Uploader: "ana"}
	records := []*core.SlideRecord{
		pipelineRecord(deckId, 1, "Q3 Revenue"),
		pipelineRecord(deckId, 2, "Costs"),
	}

	report, err := pipeline.IngestDeck(context.Background(), deck, records)
	require.NoError(t, err)

	assert.Len(t, report.Stored, 2)
	assert.Len(t, report.Indexed, 2)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, 2, idx.Len())

	for _, record := range records {
		assert.NotEmpty(t, record.Summary, "slide %d should be summarized", record.SlideNumber)
		assert.NotEmpty(t, record.Vector, "slide %d should be embedded", record.SlideNumber)
		assert.True(t, record.Indexable())
	}

	// Both enrichment stages ran once per record.
	assert.Equal(t, 2, provider.GetMockSummarizer().CallCount())
	assert.Equal(t, 2, provider.GetMockEmbedder().CallCount())
}

func TestIngestDeckPreservesProvidedEnrichment(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	pipeline, _ := newTestPipeline(t, provider)

	deckId := core.DeckIDFromName("q3-review")
	record := pipelineRecord(deckId, 1, "Q3 Revenue")
	record.Summary = "Quarterly revenue grew 12%."
	record.Vector = mock.DeterministicVector("precomputed", 384)

	report, err := pipeline.IngestDeck(context.Background(), nil, []*core.SlideRecord{record})
	require.NoError(t, err)

	assert.Len(t, report.Indexed, 1)
	assert.Equal(t, "Quarterly revenue grew 12%.", record.Summary)
	assert.Equal(t, 0, provider.GetMockSummarizer().CallCount())
	assert.Equal(t, 0, provider.GetMockEmbedder().CallCount())
}

func TestIngestDeckIsolatesEnrichmentFailures(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockSummarizer().SummarizeFunc = func(ctx context.Context, text string) (string, error) {
		if strings.Contains(text, "Costs") {
			return "", errors.New("model unavailable")
		}
		return "Summary: " + text, nil
	}
	pipeline, idx := newTestPipeline(t, provider)

	deckId := core.DeckIDFromName("q3-review")
	records := []*core.SlideRecord{
		pipelineRecord(deckId, 1, "Q3 Revenue"),
		pipelineRecord(deckId, 2, "Costs"),
	}

	report, err := pipeline.IngestDeck(context.Background(), nil, records)
	require.NoError(t, err)

	// Both records are persisted; only the healthy one is indexed.
	assert.Len(t, report.Stored, 2)
	require.Len(t, report.Indexed, 1)
	assert.Equal(t, records[0].Id, report.Indexed[0])
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, records[1].Id, report.Skipped[0].SlideId)
	assert.ErrorIs(t, report.Skipped[0].Err, core.ErrMissingSummary)
	assert.Equal(t, 1, idx.Len())
}

func TestIngestDeckSkipsInvalidRecords(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	pipeline, idx := newTestPipeline(t, provider)

	deckId := core.DeckIDFromName("q3-review")
	valid := pipelineRecord(deckId, 1, "Q3 Revenue")
	invalid := pipelineRecord(deckId, 2, "Costs")
	invalid.SlideNumber = 0

	report, err := pipeline.IngestDeck(context.Background(), nil, []*core.SlideRecord{valid, invalid})
	require.NoError(t, err)

	// The invalid record is reported but never persisted or enriched.
	assert.Len(t, report.Stored, 1)
	assert.Len(t, report.Indexed, 1)
	require.Len(t, report.Skipped, 1)
	assert.ErrorIs(t, report.Skipped[0].Err, core.ErrInvalidSlideRecord)
	assert.Empty(t, invalid.Summary)
	assert.Equal(t, 1, idx.Len())
}

func TestIngestDeckNoTextRecordStaysUnindexed(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	pipeline, idx := newTestPipeline(t, provider)

	deckId := core.DeckIDFromName("q3-review")
	record := pipelineRecord(deckId, 1, "ignored")
	record.Title = ""
	record.RawText = nil

	report, err := pipeline.IngestDeck(context.Background(), nil, []*core.SlideRecord{record})
	require.NoError(t, err)

	assert.Len(t, report.Stored, 1)
	assert.Empty(t, report.Indexed)
	require.Len(t, report.Skipped, 1)
	assert.ErrorIs(t, report.Skipped[0].Err, core.ErrMissingSummary)
	assert.Equal(t, 0, idx.Len())
}

func TestIngestDeckReplacesOnReingest(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	pipeline, idx := newTestPipeline(t, provider)

	ctx := context.Background()
	deckId := core.DeckIDFromName("q3-review")

	_, err := pipeline.IngestDeck(ctx, nil, []*core.SlideRecord{
		pipelineRecord(deckId, 1, "Q3 Revenue"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, idx.Len())

	// Same deck and slide number means the same id, so the index converges
	// instead of growing.
	_, err = pipeline.IngestDeck(ctx, nil, []*core.SlideRecord{
		pipelineRecord(deckId, 1, "Q3 Revenue, Revised"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
}

func TestFailedReingestRemovesStaleIndexEntry(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	pipeline, idx := newTestPipeline(t, provider)

	ctx := context.Background()
	deckId := core.DeckIDFromName("q3-review")

	_, err := pipeline.IngestDeck(ctx, nil, []*core.SlideRecord{
		pipelineRecord(deckId, 1, "Q3 Revenue"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, idx.Len())

	// The re-ingest fails enrichment, so the store holds the new version
	// without a summary. The old version must not keep ranking for it.
	provider.GetMockSummarizer().SummarizeFunc = func(ctx context.Context, text string) (string, error) {
		return "", errors.New("model unavailable")
	}

	report, err := pipeline.IngestDeck(ctx, nil, []*core.SlideRecord{
		pipelineRecord(deckId, 1, "Q3 Revenue, Revised"),
	})
	require.NoError(t, err)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, 0, idx.Len())
}

func TestWithPoolSize(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	pipeline, _ := newTestPipeline(t, provider, WithPoolSize(1))

	deckId := core.DeckIDFromName("q3-review")
	records := make([]*core.SlideRecord, 0, 8)
	for n := 1; n <= 8; n++ {
		records = append(records, pipelineRecord(deckId, n, "Slide"))
	}

	report, err := pipeline.IngestDeck(context.Background(), nil, records)
	require.NoError(t, err)
	assert.Len(t, report.Indexed, 8)
}
