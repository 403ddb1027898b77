package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/poiesic/slidevault/ai"
	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/redaction"
	"github.com/poiesic/slidevault/storage"
)

// Searcher orchestrates hybrid keyword and vector search over slide records.
// Every query is answered with redacted views only; original content is never
// reachable through a search result.
type Searcher struct {
	slides   storage.SlideRepository
	ranker   *Ranker
	embedder ai.Embedder
	engine   *redaction.Engine
	audit    storage.AuditLog
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Searcher) error {
		if now != nil {
			s.now = now
		}
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	slides storage.SlideRepository,
	ranker *Ranker,
	provider ai.AIProvider,
	engine *redaction.Engine,
	audit storage.AuditLog,
	opts ...Option,
) (*Searcher, error) {
	if slides == nil {
		return nil, ErrSlideRepositoryRequired
	}
	if ranker == nil {
		return nil, ErrRankerRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if engine == nil {
		return nil, ErrRedactionEngineRequired
	}
	if audit == nil {
		return nil, ErrAuditLogRequired
	}

	s := &Searcher{
		slides:   slides,
		ranker:   ranker,
		embedder: provider.Embedder(),
		engine:   engine,
		audit:    audit,
		logger:   slog.Default(),
		now:      time.Now,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns up to limit ranked, redacted results for the query.
func (s *Searcher) Search(ctx context.Context, query string, filters *core.Filters, callerId string, limit int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, filters, callerId, limit, nil)
}

// SearchWithMonitor searches with monitoring callbacks at each stage.
// Exactly one search audit entry is written per call, whether the call
// succeeds or fails, so query volume itself stays auditable.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, filters *core.Filters, callerId string, limit int, monitor SearchMonitor) (results []*core.SearchResult, err error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	defer func() {
		outcome := "failed"
		if err == nil {
			outcome = strconv.Itoa(len(results))
		}
		entry := &core.AuditEntry{
			Timestamp: s.now(),
			ActorId:   callerId,
			Action:    core.AuditActionSearch,
			Outcome:   outcome,
		}
		if auditErr := s.audit.Append(context.WithoutCancel(ctx), entry); auditErr != nil {
			s.logger.Error("recording search audit entry", "callerId", callerId, "err", auditErr)
			// Results may not leave the searcher without their entry.
			if err == nil {
				results = nil
				err = fmt.Errorf("recording search audit entry: %w", auditErr)
			}
		}
		monitor.Finish(results)
	}()

	if err = filters.Validate(); err != nil {
		return nil, err
	}

	// 1. Embed the query. Embedding failure degrades search rather than
	// silently falling back to keyword-only results.
	queryVector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("%w: embedding query: %w", core.ErrSearchUnavailable, err)
	}

	// 2. Fuse the two modalities into one ranked candidate list.
	hits, err := s.ranker.RankWithMonitor(ctx, query, queryVector, filters, limit, monitor)
	if err != nil {
		return nil, mapContextErr(err)
	}

	if len(hits) == 0 {
		return []*core.SearchResult{}, nil
	}

	// 3. Load the winning records and project them through redaction.
	ids := make([]core.ID, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.SlideId)
	}
	records, err := s.slides.GetSlideRecords(ctx, ids...)
	if err != nil {
		s.logger.Error("error retrieving slide records", "recordCount", len(ids), "err", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, mapContextErr(err)
		}
		return nil, fmt.Errorf("%w: loading records: %w", core.ErrSearchUnavailable, err)
	}
	monitor.AfterRecordRetrieval(records)

	byId := make(map[core.ID]*core.SlideRecord, len(records))
	for _, record := range records {
		if record != nil {
			byId[record.Id] = record
		}
	}

	results = make([]*core.SearchResult, 0, len(hits))
	for _, hit := range hits {
		record, ok := byId[hit.SlideId]
		if !ok {
			// Index briefly ahead of the store during a remove.
			s.logger.Debug("indexed slide missing from store", "slideId", hit.SlideId)
			continue
		}
		results = append(results, &core.SearchResult{
			SlideId: hit.SlideId,
			Score:   hit.Score,
			View:    s.engine.RedactedView(record),
		})
	}

	return results, nil
}

// mapContextErr surfaces a deadline overrun as the domain timeout error.
func mapContextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", core.ErrTimeout, err)
	}
	return err
}
