package core

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing so re-ingestion of the
// same deck+slide produces the same identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DeckIDFromName generates a deterministic deck ID from the deck's name.
func DeckIDFromName(name string) ID {
	return IDFromContent("deck:" + name)
}

// SlideIDFor generates a deterministic slide ID from its deck and 1-based
// slide position. Stable across re-ingestion of the same deck.
func SlideIDFor(deckID ID, slideNumber int) ID {
	return IDFromContent(fmt.Sprintf("slide:%d:%d", deckID, slideNumber))
}

// Classification is the sensitivity level assigned to a slide.
type Classification int

const (
	// ClassificationPublic marks content safe for any audience.
	ClassificationPublic Classification = iota + 1
	// ClassificationInternal marks content restricted to the organization.
	ClassificationInternal
	// ClassificationConfidential marks content restricted to approved viewers.
	ClassificationConfidential
)

// String returns the lowercase name of the classification.
func (c Classification) String() string {
	switch c {
	case ClassificationPublic:
		return "public"
	case ClassificationInternal:
		return "internal"
	case ClassificationConfidential:
		return "confidential"
	default:
		return fmt.Sprintf("classification(%d)", int(c))
	}
}

// ParseClassification converts a classification name to its value.
func ParseClassification(s string) (Classification, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return ClassificationPublic, nil
	case "internal":
		return ClassificationInternal, nil
	case "confidential":
		return ClassificationConfidential, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidClassification, s)
	}
}

// SpanSource identifies which field of a slide a sensitive span points into.
type SpanSource int

const (
	// SpanSourceText points into one of the RawText fragments.
	SpanSourceText SpanSource = iota + 1
	// SpanSourceNotes points into the speaker notes.
	SpanSourceNotes
)

// SensitiveSpan is a position flagged by the external sensitivity detector.
// Fragment indexes into RawText when Source is SpanSourceText.
type SensitiveSpan struct {
	Source   SpanSource
	Fragment int
	Start    int
	End      int
}

// BoundingBox is a shape's position and extent in EMU, as reported by the
// deck parser.
type BoundingBox struct {
	Left   int64
	Top    int64
	Width  int64
	Height int64
}

// Shape describes one shape on a slide, in document order.
type Shape struct {
	Name          string
	Kind          string
	HasText       bool
	IsPlaceholder bool
	IsImage       bool
	Box           BoundingBox
}

// Deck holds deck-level metadata reported by the parser.
type Deck struct {
	Id          ID
	Name        string
	SlideCount  int
	SlideWidth  int64 // EMU
	SlideHeight int64 // EMU
	Uploader    string
	UploadedAt  time.Time
}

// SlideRecord is the normalized representation of one slide's content and
// metadata. Summary and Vector are produced externally; records missing
// either are persisted but never indexed.
type SlideRecord struct {
	Id             ID
	DeckId         ID
	SlideNumber    int // 1-based, unique per deck
	Title          string
	RawText        []string // extracted text fragments, in document order
	Notes          string
	LayoutName     string
	Shapes         []Shape
	Summary        string    // 1-2 sentence abstract, PII-stripped
	Vector         []float32 // embedding, one per record
	Tags           []string
	Uploader       string
	UploadedAt     time.Time
	Classification Classification
	SensitiveSpans []SensitiveSpan
	ThumbnailRef   string
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// Indexable reports whether the record is eligible for search.
// Records missing a summary or embedding fail closed and stay out of the index.
func (r *SlideRecord) Indexable() bool {
	return r != nil && r.Summary != "" && len(r.Vector) > 0
}

// HasImages reports whether any shape on the slide is an image.
func (r *SlideRecord) HasImages() bool {
	for _, shape := range r.Shapes {
		if shape.IsImage {
			return true
		}
	}
	return false
}

// CombinedText joins the searchable text of the slide: title, text fragments,
// notes, summary, and tags.
func (r *SlideRecord) CombinedText() string {
	parts := make([]string, 0, len(r.RawText)+len(r.Tags)+3)
	if r.Title != "" {
		parts = append(parts, r.Title)
	}
	parts = append(parts, r.RawText...)
	if r.Notes != "" {
		parts = append(parts, r.Notes)
	}
	if r.Summary != "" {
		parts = append(parts, r.Summary)
	}
	parts = append(parts, r.Tags...)
	return strings.Join(parts, " ")
}

// RedactedView is the sanitized subset of a SlideRecord safe for default
// display. It never carries raw text, notes, shape detail, or the embedding.
type RedactedView struct {
	SlideId      ID
	DeckId       ID
	SlideNumber  int
	Summary      string
	LayoutName   string
	ShapeCount   int
	HasImages    bool
	ThumbnailRef string
}

// Hit is an index-level search candidate.
type Hit struct {
	SlideId    ID
	Score      float64
	UploadedAt time.Time
}

// SearchResult is one ranked, redacted search result.
type SearchResult struct {
	SlideId ID
	Score   float64
	View    *RedactedView
}
