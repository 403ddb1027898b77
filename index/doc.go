// Package index maintains the in-memory search index over eligible slide
// records: an inverted keyword index with per-slide term frequencies and a
// vector index over unit-normalized embeddings.
//
// The index is rebuilt from the slide store on open. Only records carrying
// both a summary and an embedding are admitted; everything else fails
// closed and stays out of the searchable set.
package index
