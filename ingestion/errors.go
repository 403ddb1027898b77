package ingestion

import "errors"

var (
	// ErrSlideRepositoryRequired is returned when a slide repository is not provided.
	ErrSlideRepositoryRequired = errors.New("slide repository required")

	// ErrIndexRequired is returned when an indexer is not provided.
	ErrIndexRequired = errors.New("indexer required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)
