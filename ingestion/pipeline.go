package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/slidevault/ai"
	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/storage"
)

// Indexer receives enriched records for search. The in-memory index
// satisfies this interface.
type Indexer interface {
	Upsert(record *core.SlideRecord) error
	Remove(id core.ID)
}

// RecordError reports an ingestion failure for a single slide.
type RecordError struct {
	SlideId     core.ID
	SlideNumber int
	Err         error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("slide %d (id %d): %v", e.SlideNumber, e.SlideId, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Report is the per-record outcome of one deck ingestion. Stored holds every
// persisted record; Indexed the subset that became searchable. Skipped lists
// records that failed validation or enrichment. A skipped record with a
// validation failure is not persisted; one that merely failed enrichment is
// persisted but left out of the index.
type Report struct {
	Stored  []core.ID
	Indexed []core.ID
	Skipped []*RecordError
}

// Pipeline turns extracted slide records into stored, searchable records.
// Records arriving without a summary or embedding are enriched through the
// AI provider using two worker pools. One bad record never aborts a batch.
type Pipeline struct {
	slides        storage.SlideRepository
	idx           Indexer
	summaryPool   *ants.Pool
	embeddingPool *ants.Pool
	summaryProc   processor
	embeddingProc processor
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent enrichment.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.summaryPool != nil {
			p.summaryPool.Release()
		}
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		summaryPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		embeddingPool, err := ants.NewPool(size)
		if err != nil {
			summaryPool.Release()
			return err
		}

		p.summaryPool = summaryPool
		p.embeddingPool = embeddingPool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	slides storage.SlideRepository,
	idx Indexer,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if slides == nil {
		return nil, ErrSlideRepositoryRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	summaryPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		summaryPool.Release()
		return nil, err
	}

	p := &Pipeline{
		slides:        slides,
		idx:           idx,
		summaryPool:   summaryPool,
		embeddingPool: embeddingPool,
		logger:        slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	summaryProc, err := newSummaryProcessor(provider.Summarizer(), p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}

	embeddingProc, err := newEmbeddingProcessor(provider.Embedder(), p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}

	p.summaryProc = summaryProc
	p.embeddingProc = embeddingProc

	return p, nil
}

// IngestDeck validates, enriches, persists, and indexes one deck's records.
// Re-ingesting a deck replaces its records: ids derive from deck name and
// slide number, so the store and index converge on the latest content.
//
// Only a storage failure aborts the batch; per-record problems are reported
// through the Report.
func (p *Pipeline) IngestDeck(ctx context.Context, deck *core.Deck, records []*core.SlideRecord) (*Report, error) {
	report := &Report{}
	failed := make(map[core.ID]error)

	valid := make([]*core.SlideRecord, 0, len(records))
	for _, record := range records {
		if err := core.ValidateSlideRecord(record); err != nil {
			report.Skipped = append(report.Skipped, &RecordError{
				SlideId:     record.Id,
				SlideNumber: record.SlideNumber,
				Err:         err,
			})
			continue
		}
		valid = append(valid, record)
	}

	p.runStage(ctx, p.summaryPool, p.summaryProc, valid, failed)
	p.runStage(ctx, p.embeddingPool, p.embeddingProc, valid, failed)

	if deck != nil {
		if err := p.slides.UpsertDeck(ctx, deck); err != nil {
			return nil, err
		}
	}
	if err := p.slides.UpsertSlideRecords(ctx, valid...); err != nil {
		return nil, err
	}

	for _, record := range valid {
		report.Stored = append(report.Stored, record.Id)

		if err := failed[record.Id]; err != nil {
			// The store now holds this version; a stale entry from an
			// earlier ingest must not keep ranking it.
			p.idx.Remove(record.Id)
			report.Skipped = append(report.Skipped, &RecordError{
				SlideId:     record.Id,
				SlideNumber: record.SlideNumber,
				Err:         err,
			})
			continue
		}
		if err := p.idx.Upsert(record); err != nil {
			p.logger.Warn("record stored but not indexed", "slideId", record.Id, "err", err)
			p.idx.Remove(record.Id)
			report.Skipped = append(report.Skipped, &RecordError{
				SlideId:     record.Id,
				SlideNumber: record.SlideNumber,
				Err:         err,
			})
			continue
		}
		report.Indexed = append(report.Indexed, record.Id)
	}

	p.logger.Info("deck ingested",
		"stored", len(report.Stored),
		"indexed", len(report.Indexed),
		"skipped", len(report.Skipped))
	return report, nil
}

// runStage runs one enrichment step over all records not already failed,
// fanning the work out on the given pool.
func (p *Pipeline) runStage(ctx context.Context, pool *ants.Pool, proc processor, records []*core.SlideRecord, failed map[core.ID]error) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, record := range records {
		mu.Lock()
		_, skip := failed[record.Id]
		mu.Unlock()
		if skip {
			continue
		}

		wg.Add(1)
		record := record
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := proc.process(ctx, record); err != nil {
				mu.Lock()
				failed[record.Id] = err
				mu.Unlock()
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			failed[record.Id] = submitErr
			mu.Unlock()
		}
	}

	wg.Wait()
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.summaryPool != nil {
		p.summaryPool.Release()
	}
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
