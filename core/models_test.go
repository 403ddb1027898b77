package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContentDeterministic(t *testing.T) {
	a := IDFromContent("slide:42:1")
	b := IDFromContent("slide:42:1")
	c := IDFromContent("slide:42:2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotZero(t, a)
}

func TestSlideIDForStability(t *testing.T) {
	deckId := DeckIDFromName("q3-review")

	// Re-ingesting the same deck must reproduce every slide id.
	for n := 1; n <= 5; n++ {
		assert.Equal(t, SlideIDFor(deckId, n), SlideIDFor(deckId, n))
	}

	// Different decks never collide on slide position.
	other := DeckIDFromName("q4-review")
	assert.NotEqual(t, SlideIDFor(deckId, 1), SlideIDFor(other, 1))
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		input   string
		want    Classification
		wantErr bool
	}{
		{"public", ClassificationPublic, false},
		{"Internal", ClassificationInternal, false},
		{" CONFIDENTIAL ", ClassificationConfidential, false},
		{"secret", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClassification(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidClassification)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Classification {
	t.Helper()
	c, err := ParseClassification(s)
	require.NoError(t, err)
	return c
}

func TestSlideRecordIndexable(t *testing.T) {
	record := &SlideRecord{}
	assert.False(t, record.Indexable())

	record.Summary = "A quarterly update."
	assert.False(t, record.Indexable())

	record.Vector = []float32{0.1, 0.2}
	assert.True(t, record.Indexable())

	var nilRecord *SlideRecord
	assert.False(t, nilRecord.Indexable())
}

func TestSlideRecordHasImages(t *testing.T) {
	record := &SlideRecord{
		Shapes: []Shape{
			{Name: "Title 1", Kind: "PLACEHOLDER", HasText: true, IsPlaceholder: true},
			{Name: "Content 2", Kind: "TEXT_BOX", HasText: true},
		},
	}
	assert.False(t, record.HasImages())

	record.Shapes = append(record.Shapes, Shape{Name: "Picture 3", Kind: "PICTURE", IsImage: true})
	assert.True(t, record.HasImages())
}

func TestCombinedText(t *testing.T) {
	record := &SlideRecord{
		Title:   "Q3 Revenue",
		RawText: []string{"Up 12%", "Driven by renewals"},
		Notes:   "mention churn",
		Summary: "Revenue grew.",
		Tags:    []string{"finance"},
	}

	combined := record.CombinedText()
	assert.Equal(t, "Q3 Revenue Up 12% Driven by renewals mention churn Revenue grew. finance", combined)

	empty := &SlideRecord{}
	assert.Equal(t, "", empty.CombinedText())
}
