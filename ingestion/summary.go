package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/slidevault/ai"
	"github.com/poiesic/slidevault/core"
)

// summaryProcessor fills in missing slide summaries.
type summaryProcessor struct {
	summarizer ai.Summarizer
	logger     *slog.Logger
}

var _ processor = (*summaryProcessor)(nil)

func newSummaryProcessor(summarizer ai.Summarizer, logger *slog.Logger) (processor, error) {
	if summarizer == nil {
		return nil, fmt.Errorf("summarizer required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &summaryProcessor{
		summarizer: summarizer,
		logger:     logger.With("processor", "summary"),
	}, nil
}

// process generates a summary for the record when it arrived without one.
func (sp *summaryProcessor) process(ctx context.Context, record *core.SlideRecord) error {
	if record.Summary != "" {
		return nil
	}

	text := record.CombinedText()
	if text == "" {
		return fmt.Errorf("%w: slide %d has no text to summarize", core.ErrMissingSummary, record.SlideNumber)
	}

	summary, err := sp.summarizer.Summarize(ctx, text)
	if err != nil {
		sp.logger.Error("error generating summary", "slideId", record.Id, "err", err)
		return fmt.Errorf("%w: %w", core.ErrMissingSummary, err)
	}
	if summary == "" {
		return fmt.Errorf("%w: summarizer returned empty output", core.ErrMissingSummary)
	}

	record.Summary = summary
	return nil
}
