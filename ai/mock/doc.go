// Package mock provides deterministic test doubles for the ai interfaces.
//
// The mock embedder derives unit vectors from a hash of the input text, so
// identical texts always embed identically. The mock summarizer echoes a
// truncated, prefixed form of the input. Both accept function-field
// overrides for failure injection.
package mock
