package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/slidevault/ai"
	"github.com/poiesic/slidevault/core"
)

// embeddingProcessor generates embeddings for slide records.
type embeddingProcessor struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

func newEmbeddingProcessor(embedder ai.Embedder, logger *slog.Logger) (processor, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		embedder: embedder,
		logger:   logger.With("processor", "embeddings"),
	}, nil
}

// process embeds the record's combined text when it arrived without a vector.
// Runs after the summary step so the summary contributes to the embedding.
func (ep *embeddingProcessor) process(ctx context.Context, record *core.SlideRecord) error {
	if len(record.Vector) > 0 {
		return nil
	}

	text := record.CombinedText()
	if text == "" {
		return fmt.Errorf("%w: slide %d has no text to embed", core.ErrMissingEmbedding, record.SlideNumber)
	}

	vector, err := ep.embedder.EmbedText(ctx, text)
	if err != nil {
		ep.logger.Error("error generating embedding", "slideId", record.Id, "err", err)
		return fmt.Errorf("%w: %w", core.ErrMissingEmbedding, err)
	}
	if len(vector) == 0 {
		return fmt.Errorf("%w: embedder returned empty vector", core.ErrMissingEmbedding)
	}

	record.Vector = vector
	return nil
}
