package index

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/slidevault/core"
)

// docEntry holds everything the index keeps for one slide: its term counts,
// unit-normalized embedding, and the attributes filters match against.
type docEntry struct {
	terms          map[string]int
	length         int
	vector         []float32
	deckId         core.ID
	uploader       string
	tags           []string
	classification core.Classification
	uploadedAt     time.Time
}

// Index maintains the inverted keyword index and the vector index over all
// eligible slide records. Upserts swap a record's postings atomically under
// the write lock; searches read a consistent snapshot under the read lock
// and never observe a half-applied upsert.
type Index struct {
	mu       sync.RWMutex
	postings map[string]map[core.ID]int
	docs     map[core.ID]*docEntry
	logger   *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
	}
}

// New creates an empty Index.
func New(opts ...Option) *Index {
	ix := &Index{
		postings: make(map[string]map[core.ID]int),
		docs:     make(map[core.ID]*docEntry),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Upsert indexes a slide record, replacing any prior entry for the same id.
// Records missing a summary or embedding are rejected with an ingestion
// error and leave the searchable set unchanged.
func (ix *Index) Upsert(record *core.SlideRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", core.ErrIngestion)
	}
	if record.Summary == "" {
		return fmt.Errorf("%w: slide %d: %w", core.ErrIngestion, record.Id, core.ErrMissingSummary)
	}
	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: slide %d: %w", core.ErrIngestion, record.Id, core.ErrMissingEmbedding)
	}

	// Build the replacement entry outside the lock.
	terms := termCounts(record.CombinedText())
	length := 0
	for _, count := range terms {
		length += count
	}
	entry := &docEntry{
		terms:          terms,
		length:         length,
		vector:         normalize(record.Vector),
		deckId:         record.DeckId,
		uploader:       record.Uploader,
		tags:           slices.Clone(record.Tags),
		classification: record.Classification,
		uploadedAt:     record.UploadedAt,
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(record.Id)
	ix.docs[record.Id] = entry
	for token, count := range terms {
		posting := ix.postings[token]
		if posting == nil {
			posting = make(map[core.ID]int)
			ix.postings[token] = posting
		}
		posting[record.Id] = count
	}
	return nil
}

// Remove deletes a slide from the index. Removing an unknown id is a no-op.
func (ix *Index) Remove(id core.ID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(id)
}

// Len returns the number of indexed slides.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// removeLocked deletes a slide's postings. Caller holds the write lock.
func (ix *Index) removeLocked(id core.ID) {
	entry, ok := ix.docs[id]
	if !ok {
		return
	}
	for token := range entry.terms {
		posting := ix.postings[token]
		delete(posting, id)
		if len(posting) == 0 {
			delete(ix.postings, token)
		}
	}
	delete(ix.docs, id)
}

// SearchKeyword tokenizes the query and scores candidates with a TF-IDF
// relevance score. Filters are a hard pre-filter: excluded slides never
// appear regardless of score. Results are ordered by descending score,
// ties broken by most-recent upload.
func (ix *Index) SearchKeyword(ctx context.Context, query string, filters *core.Filters, limit int) ([]core.Hit, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 || limit <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	docCount := len(ix.docs)
	scores := make(map[core.ID]float64)
	for _, token := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		posting := ix.postings[token]
		if len(posting) == 0 {
			continue
		}
		idf := math.Log(1 + float64(docCount)/float64(1+len(posting)))
		for id, tf := range posting {
			entry := ix.docs[id]
			if !filters.Match(entry.uploader, entry.uploadedAt, entry.tags, entry.classification) {
				continue
			}
			// Length-normalized term frequency keeps dense slides from
			// dominating on raw word count.
			scores[id] += (float64(tf) / float64(entry.length)) * idf
		}
	}

	return ix.collect(scores, limit), nil
}

// SearchVector orders candidates by descending cosine similarity to the
// query embedding, under the same hard filter semantics as SearchKeyword.
func (ix *Index) SearchVector(ctx context.Context, queryVector []float32, filters *core.Filters, limit int) ([]core.Hit, error) {
	if len(queryVector) == 0 || limit <= 0 {
		return nil, nil
	}
	query := normalize(queryVector)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scores := make(map[core.ID]float64)
	checked := 0
	for id, entry := range ix.docs {
		checked++
		if checked%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if !filters.Match(entry.uploader, entry.uploadedAt, entry.tags, entry.classification) {
			continue
		}
		scores[id] = float64(dotProduct(query, entry.vector))
	}

	return ix.collect(scores, limit), nil
}

// collect turns a score map into an ordered, truncated hit list.
// Caller holds at least the read lock.
func (ix *Index) collect(scores map[core.ID]float64, limit int) []core.Hit {
	hits := make([]core.Hit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, core.Hit{
			SlideId:    id,
			Score:      score,
			UploadedAt: ix.docs[id].uploadedAt,
		})
	}
	slices.SortFunc(hits, compareHits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// compareHits orders by descending score, then most-recent upload, then id
// for a deterministic total order.
func compareHits(a, b core.Hit) int {
	if a.Score > b.Score {
		return -1
	}
	if a.Score < b.Score {
		return 1
	}
	if a.UploadedAt.After(b.UploadedAt) {
		return -1
	}
	if a.UploadedAt.Before(b.UploadedAt) {
		return 1
	}
	if a.SlideId < b.SlideId {
		return -1
	}
	if a.SlideId > b.SlideId {
		return 1
	}
	return 0
}

// normalize returns a unit-length copy of the vector. Zero vectors are
// returned unchanged.
func normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return slices.Clone(v)
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = f / norm
	}
	return out
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
