package search

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/poiesic/slidevault/core"
	"github.com/poiesic/slidevault/index"
)

const (
	// fusionConstant dampens top-rank dominance in reciprocal-rank fusion.
	fusionConstant = 60

	// overfetchFactor is how many candidates each modality fetches per
	// requested result, so fusion has enough overlap to work with.
	overfetchFactor = 3

	// DefaultWeight balances keyword and vector evidence evenly.
	DefaultWeight = 0.5
)

// Ranker fuses keyword and vector index results into one ranked list.
//
// The two modalities score on incommensurable scales, so fusion works on
// ranks, not raw scores: each candidate's fused score is
// w/(rank_keyword+fusionConstant) + (1-w)/(rank_vector+fusionConstant),
// where a candidate absent from a modality contributes nothing for it.
type Ranker struct {
	index  *index.Index
	weight float64
	logger *slog.Logger
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker) error

// WithWeight sets the keyword weight w in [0,1]. Higher values bias toward
// exact-term precision, lower values toward semantic recall.
// Default is DefaultWeight.
func WithWeight(weight float64) RankerOption {
	return func(r *Ranker) error {
		if weight < 0 || weight > 1 {
			return ErrInvalidWeight
		}
		r.weight = weight
		return nil
	}
}

// WithRankerLogger sets a custom logger.
// Default is slog.Default().
func WithRankerLogger(logger *slog.Logger) RankerOption {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRanker creates a ranker over the given index.
func NewRanker(idx *index.Index, opts ...RankerOption) (*Ranker, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}

	r := &Ranker{
		index:  idx,
		weight: DefaultWeight,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Rank runs both index modalities under the same filters and fuses them.
// A nil queryVector skips the vector modality entirely.
// Returns up to limit hits, ties broken by most-recent upload.
func (r *Ranker) Rank(ctx context.Context, query string, queryVector []float32, filters *core.Filters, limit int) ([]core.Hit, error) {
	return r.RankWithMonitor(ctx, query, queryVector, filters, limit, nil)
}

// RankWithMonitor is Rank with per-stage monitoring callbacks.
func (r *Ranker) RankWithMonitor(ctx context.Context, query string, queryVector []float32, filters *core.Filters, limit int, monitor SearchMonitor) ([]core.Hit, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if limit <= 0 {
		return []core.Hit{}, nil
	}

	fetch := limit * overfetchFactor

	var (
		wg          sync.WaitGroup
		keywordHits []core.Hit
		vectorHits  []core.Hit
		keywordErr  error
		vectorErr   error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		keywordHits, keywordErr = r.index.SearchKeyword(ctx, query, filters, fetch)
	}()

	if len(queryVector) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorHits, vectorErr = r.index.SearchVector(ctx, queryVector, filters, fetch)
		}()
	}

	wg.Wait()

	if keywordErr != nil {
		r.logger.Error("keyword search failed", "query", query, "err", keywordErr)
		return nil, keywordErr
	}
	if vectorErr != nil {
		r.logger.Error("vector search failed", "err", vectorErr)
		return nil, vectorErr
	}

	monitor.AfterKeywordSearch(keywordHits)
	monitor.AfterVectorSearch(vectorHits)

	fused := r.fuse(keywordHits, vectorHits, limit)
	monitor.AfterFusion(fused)

	return fused, nil
}

// fuse combines the two rank lists by reciprocal rank and truncates to limit.
func (r *Ranker) fuse(keywordHits, vectorHits []core.Hit, limit int) []core.Hit {
	scores := make(map[core.ID]float64, len(keywordHits)+len(vectorHits))
	uploaded := make(map[core.ID]core.Hit, len(keywordHits)+len(vectorHits))

	for rank, hit := range keywordHits {
		scores[hit.SlideId] += r.weight / float64(rank+1+fusionConstant)
		uploaded[hit.SlideId] = hit
	}
	for rank, hit := range vectorHits {
		scores[hit.SlideId] += (1 - r.weight) / float64(rank+1+fusionConstant)
		uploaded[hit.SlideId] = hit
	}

	fused := make([]core.Hit, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, core.Hit{
			SlideId:    id,
			Score:      score,
			UploadedAt: uploaded[id].UploadedAt,
		})
	}

	slices.SortFunc(fused, func(a, b core.Hit) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		if !a.UploadedAt.Equal(b.UploadedAt) {
			if a.UploadedAt.After(b.UploadedAt) {
				return -1
			}
			return 1
		}
		if a.SlideId != b.SlideId {
			if a.SlideId < b.SlideId {
				return -1
			}
			return 1
		}
		return 0
	})

	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused
}
