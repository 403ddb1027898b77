// Package ingestion loads extractor output and turns it into stored,
// searchable slide records. LoadExtractedDeck handles the JSON handoff from
// the external deck parser; Pipeline enriches, persists, and indexes the
// resulting records with per-record failure isolation.
package ingestion
