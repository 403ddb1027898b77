package core

import (
	"fmt"
	"time"
)

// Filters restricts a search to slides matching every present dimension.
// A zero-value field means no restriction on that dimension. Filters are
// applied as a hard pre-filter: excluded records never appear regardless
// of relevance score.
type Filters struct {
	Uploaders       []string
	Tags            []string
	Classifications []Classification
	From            time.Time
	To              time.Time
}

// Validate checks the filter set at the service boundary.
func (f *Filters) Validate() error {
	if f == nil {
		return nil
	}
	for _, c := range f.Classifications {
		if c < ClassificationPublic || c > ClassificationConfidential {
			return fmt.Errorf("%w: %d", ErrInvalidClassification, int(c))
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return fmt.Errorf("%w: date range end precedes start", ErrInvalidFilters)
	}
	return nil
}

// Match reports whether a record with the given attributes passes the filter.
// A nil receiver matches everything.
func (f *Filters) Match(uploader string, uploaded time.Time, tags []string, classification Classification) bool {
	if f == nil {
		return true
	}
	if len(f.Uploaders) > 0 && !containsString(f.Uploaders, uploader) {
		return false
	}
	if len(f.Classifications) > 0 {
		found := false
		for _, c := range f.Classifications {
			if c == classification {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.From.IsZero() && uploaded.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && uploaded.After(f.To) {
		return false
	}
	if len(f.Tags) > 0 {
		// Any overlap qualifies.
		found := false
		for _, want := range f.Tags {
			if containsString(tags, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
