package slidevault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/ingestion"
	"github.com/poiesic/slidevault/search"
)

// Service is the orchestration entry point over a Vault. It exposes the
// subsystem's operations behind one facade: search, ingestion, removal,
// the access-request lifecycle, gated full views, and the audit trail.
type Service struct {
	vault    *Vault
	pipeline *ingestion.Pipeline
	searcher *search.Searcher
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	weight   float64
	poolSize int
	logger   *slog.Logger
}

// WithSearchWeight biases ranking toward keyword precision (near 1) or
// semantic recall (near 0). Default is search.DefaultWeight.
func WithSearchWeight(weight float64) ServiceOption {
	return func(o *serviceOptions) {
		o.weight = weight
	}
}

// WithIngestPoolSize sets the enrichment worker pool size.
func WithIngestPoolSize(size int) ServiceOption {
	return func(o *serviceOptions) {
		o.poolSize = size
	}
}

// WithServiceLogger sets a custom logger.
// Default is slog.Default().
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewService assembles the service over an open vault.
func NewService(vault *Vault, opts ...ServiceOption) (*Service, error) {
	if vault == nil {
		return nil, errors.New("vault required")
	}

	options := &serviceOptions{
		weight: search.DefaultWeight,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	pipelineOpts := []ingestion.Option{ingestion.WithLogger(options.logger)}
	if options.poolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(options.poolSize))
	}
	pipeline, err := vault.NewIngestionPipeline(pipelineOpts...)
	if err != nil {
		return nil, err
	}

	searcher, err := vault.NewSearcher(options.weight, search.WithLogger(options.logger))
	if err != nil {
		pipeline.Release()
		return nil, err
	}

	return &Service{
		vault:    vault,
		pipeline: pipeline,
		searcher: searcher,
		logger:   options.logger,
	}, nil
}

// Release frees the service's worker pools. The underlying vault stays open.
func (s *Service) Release() {
	s.pipeline.Release()
}

// Search returns up to limit ranked, redacted results for the query.
func (s *Service) Search(ctx context.Context, query string, filters *core.Filters, callerId string, limit int) ([]*core.SearchResult, error) {
	return s.searcher.Search(ctx, query, filters, callerId, limit)
}

// UpsertSlides ingests a batch of already-normalized slide records under the
// given deck metadata. Per-record failures are reported in the Report, never
// as a batch error.
func (s *Service) UpsertSlides(ctx context.Context, deck *core.Deck, records []*core.SlideRecord) (*ingestion.Report, error) {
	return s.pipeline.IngestDeck(ctx, deck, records)
}

// IngestExtractedDeck reads one extractor JSON document and ingests it.
func (s *Service) IngestExtractedDeck(ctx context.Context, r io.Reader, input ingestion.DeckInput) (*ingestion.Report, error) {
	deck, records, err := ingestion.LoadExtractedDeck(r, input)
	if err != nil {
		return nil, err
	}
	return s.pipeline.IngestDeck(ctx, deck, records)
}

// RemoveSlide deletes a slide from the store and the index. Removing an
// unknown slide is a no-op.
func (s *Service) RemoveSlide(ctx context.Context, slideId core.ID) error {
	if err := s.vault.slideRepo.DeleteSlideRecords(ctx, slideId); err != nil {
		return err
	}
	s.vault.idx.Remove(slideId)
	return nil
}

// RemoveDeck deletes a deck and all its slides from the store and the index.
func (s *Service) RemoveDeck(ctx context.Context, deckId core.ID) error {
	removed, err := s.vault.slideRepo.DeleteDeck(ctx, deckId)
	if err != nil {
		return err
	}
	for _, id := range removed {
		s.vault.idx.Remove(id)
	}
	s.logger.Info("deck removed", "deckId", deckId, "slides", len(removed))
	return nil
}

// RequestOriginal files an access request for a slide's full content and
// returns the request id. Re-requesting while a request is pending returns
// the pending request's id.
func (s *Service) RequestOriginal(ctx context.Context, slideId core.ID, requesterId, reason string) (string, error) {
	record, err := s.vault.slideRepo.GetSlideRecord(ctx, slideId)
	if err != nil {
		return "", err
	}
	request, err := s.vault.accessGate.RequestOriginal(ctx, slideId, record.DeckId, requesterId, reason)
	if err != nil {
		return "", err
	}
	return request.Id, nil
}

// Approve issues a grant for a pending request.
func (s *Service) Approve(ctx context.Context, requestId, approverId string, scope core.GrantScope, ttl time.Duration) (*core.Grant, error) {
	return s.vault.accessGate.Approve(ctx, requestId, approverId, scope, ttl)
}

// Deny rejects a pending request.
func (s *Service) Deny(ctx context.Context, requestId, deciderId string) error {
	return s.vault.accessGate.Deny(ctx, requestId, deciderId)
}

// Revoke terminates an active grant.
func (s *Service) Revoke(ctx context.Context, grantId, revokerId string) error {
	return s.vault.accessGate.Revoke(ctx, grantId, revokerId)
}

// RedactedView returns the sanitized projection of one slide. Available to
// any caller; the delivery is audited.
func (s *Service) RedactedView(ctx context.Context, slideId core.ID, callerId string) (*core.RedactedView, error) {
	return s.vault.engine.RedactedViewFor(ctx, slideId, callerId)
}

// FullView returns the complete slide record when callerId holds an active
// grant covering it; otherwise it fails with core.ErrAccessDenied. Either
// way the attempt lands in the audit log before this returns.
func (s *Service) FullView(ctx context.Context, slideId core.ID, callerId string) (*core.SlideRecord, error) {
	record, err := s.vault.engine.FullView(ctx, slideId, callerId)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", core.ErrTimeout, err)
		}
		return nil, err
	}
	return record, nil
}

// AuditEntries returns audit entries in append order. A limit <= 0 returns
// all entries.
func (s *Service) AuditEntries(ctx context.Context, limit int) ([]*core.AuditEntry, error) {
	return s.vault.auditLog.Entries(ctx, limit)
}
