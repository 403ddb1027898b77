package redaction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/storage"
)

// GrantChecker reports whether a requester currently holds an active grant
// covering a slide. The access gate satisfies this interface.
type GrantChecker interface {
	IsActive(ctx context.Context, slideId, deckId core.ID, requesterId string) (bool, error)
}

// Engine produces redacted views of slide records and enforces the access
// check on original-content reads. Every original-content read, allowed or
// denied, is written to the audit log before the call returns.
type Engine struct {
	slides storage.SlideRepository
	gate   GrantChecker
	audit  storage.AuditLog
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) error {
		if now != nil {
			e.now = now
		}
		return nil
	}
}

// NewEngine creates a redaction engine.
func NewEngine(slides storage.SlideRepository, gate GrantChecker, audit storage.AuditLog, opts ...Option) (*Engine, error) {
	if slides == nil {
		return nil, ErrSlideRepositoryRequired
	}
	if gate == nil {
		return nil, ErrGrantCheckerRequired
	}
	if audit == nil {
		return nil, ErrAuditLogRequired
	}

	e := &Engine{
		slides: slides,
		gate:   gate,
		audit:  audit,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// RedactedView builds the sanitized projection of a slide record. The
// projection never includes raw text, notes, shape detail, or the embedding,
// regardless of the record's classification.
func (e *Engine) RedactedView(record *core.SlideRecord) *core.RedactedView {
	if record == nil {
		return nil
	}
	return &core.RedactedView{
		SlideId:      record.Id,
		DeckId:       record.DeckId,
		SlideNumber:  record.SlideNumber,
		Summary:      record.Summary,
		LayoutName:   record.LayoutName,
		ShapeCount:   len(record.Shapes),
		HasImages:    record.HasImages(),
		ThumbnailRef: record.ThumbnailRef,
	}
}

// RedactedViewFor loads a slide and returns its sanitized projection,
// recording the delivery in the audit log. Search results go through
// RedactedView directly; their delivery is covered by the per-search entry.
func (e *Engine) RedactedViewFor(ctx context.Context, slideId core.ID, callerId string) (*core.RedactedView, error) {
	record, err := e.slides.GetSlideRecord(ctx, slideId)
	if err != nil {
		return nil, err
	}

	entry := &core.AuditEntry{
		Timestamp: e.now(),
		ActorId:   callerId,
		SlideId:   slideId,
		Action:    core.AuditActionViewRedacted,
		Outcome:   "delivered",
	}
	if err := e.audit.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording redacted view: %w", err)
	}

	return e.RedactedView(record), nil
}

// FullView returns the complete slide record, including raw text and notes,
// when callerId holds an active grant covering the slide. Without one the
// call fails with ErrAccessDenied and no original content leaves the engine.
func (e *Engine) FullView(ctx context.Context, slideId core.ID, callerId string) (*core.SlideRecord, error) {
	record, err := e.slides.GetSlideRecord(ctx, slideId)
	if err != nil {
		return nil, err
	}

	active, err := e.gate.IsActive(ctx, slideId, record.DeckId, callerId)
	if err != nil {
		e.logger.Error("grant check failed", "slideId", slideId, "callerId", callerId, "err", err)
		return nil, err
	}

	outcome := "granted"
	if !active {
		outcome = "denied"
	}
	entry := &core.AuditEntry{
		Timestamp: e.now(),
		ActorId:   callerId,
		SlideId:   slideId,
		Action:    core.AuditActionViewOriginal,
		Outcome:   outcome,
	}
	if err := e.audit.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording original view: %w", err)
	}

	if !active {
		return nil, fmt.Errorf("%w: no active grant for slide %d", core.ErrAccessDenied, slideId)
	}
	return record, nil
}
