package ingestion

import (
	"strings"
	"testing"
	"time"

	"github.com/poiesic/slidevault/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const extractorFixture = `{
	"basic_info": {
		"file_path": "/decks/q3-review.pptx",
		"total_slides": 3,
		"slide_dimensions": {"width": 9144000, "height": 6858000}
	},
	"titles": [
		{"slide_number": 1, "title": "Q3 Revenue"},
		{"slide_number": 2, "title": "  "},
		{"slide_number": 3, "title": "Outlook"}
	],
	"text_content": {
		"slides": [
			{"slide_number": 1, "text_elements": ["Q3 Revenue", "Up 12% year over year"]},
			{"slide_number": 2, "text_elements": ["Headcount by region"]},
			{"slide_number": 3, "text_elements": []}
		]
	},
	"images_info": [
		{
			"slide_number": 2,
			"images": [
				{"shape_name": "Chart 1", "width": 400, "height": 300, "left": 100, "top": 50},
				{"shape_name": "Logo", "width": 64, "height": 64, "left": 10, "top": 10}
			]
		}
	],
	"notes": [
		{"slide_number": 1, "notes": "Mention the EU numbers."}
	],
	"layout_info": [
		{
			"slide_number": 1,
			"layout_name": "Title and Content",
			"shapes": [
				{"name": "Title 1", "type": "PLACEHOLDER", "has_text": true, "is_placeholder": true},
				{"name": "Content 2", "type": "PLACEHOLDER", "has_text": true, "is_placeholder": true}
			]
		},
		{
			"slide_number": 2,
			"layout_name": "Chart Layout",
			"shapes": [
				{"name": "Chart 1", "type": "CHART", "has_text": false, "is_placeholder": false}
			]
		}
	]
}`

func TestLoadExtractedDeck(t *testing.T) {
	input := DeckInput{
		Uploader:       "ana",
		Tags:           []string{"finance", "q3"},
		Classification: core.ClassificationConfidential,
		UploadedAt:     time.Date(2025, 10, 2, 9, 0, 0, 0, time.UTC),
	}
	deck, records, err := LoadExtractedDeck(strings.NewReader(extractorFixture), input)
	require.NoError(t, err)

	assert.Equal(t, "q3-review", deck.Name)
	assert.Equal(t, core.DeckIDFromName("q3-review"), deck.Id)
	assert.Equal(t, 3, deck.SlideCount)
	assert.Equal(t, int64(9144000), deck.SlideWidth)
	assert.Equal(t, int64(6858000), deck.SlideHeight)
	assert.Equal(t, "ana", deck.Uploader)
	assert.Equal(t, input.UploadedAt, deck.UploadedAt)

	require.Len(t, records, 3)
	for i, record := range records {
		assert.Equal(t, i+1, record.SlideNumber)
		assert.Equal(t, core.SlideIDFor(deck.Id, i+1), record.Id)
		assert.Equal(t, deck.Id, record.DeckId)
		assert.Equal(t, "ana", record.Uploader)
		assert.Equal(t, []string{"finance", "q3"}, record.Tags)
		assert.Equal(t, core.ClassificationConfidential, record.Classification)
		assert.NoError(t, core.ValidateSlideRecord(record))
	}

	first := records[0]
	assert.Equal(t, "Q3 Revenue", first.Title)
	assert.Equal(t, []string{"Q3 Revenue", "Up 12% year over year"}, first.RawText)
	assert.Equal(t, "Mention the EU numbers.", first.Notes)
	assert.Equal(t, "Title and Content", first.LayoutName)
	require.Len(t, first.Shapes, 2)
	assert.True(t, first.Shapes[0].IsPlaceholder)
	assert.False(t, first.HasImages())

	// Whitespace-only titles fall back to "No Title".
	second := records[1]
	assert.Equal(t, "No Title", second.Title)
	assert.Equal(t, "Chart Layout", second.LayoutName)

	// "Chart 1" exists in the layout section, so the image info attaches to
	// it; "Logo" does not, so it becomes a synthesized picture shape.
	require.Len(t, second.Shapes, 2)
	chart := second.Shapes[0]
	assert.Equal(t, "Chart 1", chart.Name)
	assert.Equal(t, "CHART", chart.Kind)
	assert.True(t, chart.IsImage)
	assert.Equal(t, core.BoundingBox{Left: 100, Top: 50, Width: 400, Height: 300}, chart.Box)

	logo := second.Shapes[1]
	assert.Equal(t, "Logo", logo.Name)
	assert.Equal(t, "PICTURE", logo.Kind)
	assert.True(t, logo.IsImage)
	assert.True(t, second.HasImages())

	// Slide 3 has no text, notes, or layout; it still gets a record.
	third := records[2]
	assert.Equal(t, "Outlook", third.Title)
	assert.Empty(t, third.RawText)
	assert.Empty(t, third.Notes)
}

func TestLoadExtractedDeckStableIds(t *testing.T) {
	input := DeckInput{Uploader: "ana", Classification: core.ClassificationInternal}

	_, first, err := LoadExtractedDeck(strings.NewReader(extractorFixture), input)
	require.NoError(t, err)
	_, second, err := LoadExtractedDeck(strings.NewReader(extractorFixture), input)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Id, second[i].Id)
	}
}

func TestLoadExtractedDeckRejectsBadInput(t *testing.T) {
	input := DeckInput{Uploader: "ana", Classification: core.ClassificationInternal}

	_, _, err := LoadExtractedDeck(strings.NewReader("{not json"), input)
	assert.ErrorIs(t, err, core.ErrIngestion)

	_, _, err = LoadExtractedDeck(strings.NewReader(`{"basic_info": {"file_path": "empty.pptx", "total_slides": 0}}`), input)
	assert.ErrorIs(t, err, core.ErrIngestion)
}

func TestDeckNameFromPath(t *testing.T) {
	assert.Equal(t, "q3-review", deckNameFromPath("/decks/q3-review.pptx"))
	assert.Equal(t, "q3-review", deckNameFromPath("q3-review.pptx"))
	assert.Equal(t, "board deck v2", deckNameFromPath("C:/exports/board deck v2.pptx"))
	assert.Equal(t, "plain", deckNameFromPath("plain"))
}
