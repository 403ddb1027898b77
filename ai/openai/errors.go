package openai

import "errors"

var (
	// ErrEmptyInput is returned when there is no text to summarize.
	ErrEmptyInput = errors.New("no text to summarize")

	// ErrNoSummary is returned when the model produces no usable output.
	ErrNoSummary = errors.New("model returned no summary")
)
