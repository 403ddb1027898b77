package ingestion

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/slidevault/core"
)

// extractedDeck mirrors the JSON document emitted by the external deck
// extractor. Binary deck parsing stays outside this subsystem; this document
// is the normalized handoff format.
type extractedDeck struct {
	BasicInfo struct {
		FilePath        string `json:"file_path"`
		TotalSlides     int    `json:"total_slides"`
		SlideDimensions struct {
			Width  int64 `json:"width"`
			Height int64 `json:"height"`
		} `json:"slide_dimensions"`
	} `json:"basic_info"`

	Titles []struct {
		SlideNumber int    `json:"slide_number"`
		Title       string `json:"title"`
	} `json:"titles"`

	TextContent struct {
		Slides []struct {
			SlideNumber  int      `json:"slide_number"`
			TextElements []string `json:"text_elements"`
		} `json:"slides"`
	} `json:"text_content"`

	ImagesInfo []struct {
		SlideNumber int `json:"slide_number"`
		Images      []struct {
			ShapeName string `json:"shape_name"`
			Width     int64  `json:"width"`
			Height    int64  `json:"height"`
			Left      int64  `json:"left"`
			Top       int64  `json:"top"`
		} `json:"images"`
	} `json:"images_info"`

	Notes []struct {
		SlideNumber int    `json:"slide_number"`
		Notes       string `json:"notes"`
	} `json:"notes"`

	LayoutInfo []struct {
		SlideNumber int    `json:"slide_number"`
		LayoutName  string `json:"layout_name"`
		Shapes      []struct {
			Name          string `json:"name"`
			Type          string `json:"type"`
			HasText       bool   `json:"has_text"`
			IsPlaceholder bool   `json:"is_placeholder"`
		} `json:"shapes"`
	} `json:"layout_info"`
}

// DeckInput identifies who uploaded a deck and how its slides are classified.
// Classification applies to every slide in the deck; finer-grained labels
// come from the sensitivity detector downstream.
type DeckInput struct {
	Uploader       string
	Tags           []string
	Classification core.Classification
	UploadedAt     time.Time
}

// LoadExtractedDeck reads one extractor JSON document and produces the deck
// metadata plus one slide record per slide, keyed by stable content-derived
// ids so re-ingesting the same deck replaces rather than duplicates.
//
// Slide titles follow the extractor's convention: the title placeholder when
// present, otherwise the first line of the first text shape, otherwise
// "No Title".
func LoadExtractedDeck(r io.Reader, input DeckInput) (*core.Deck, []*core.SlideRecord, error) {
	var doc extractedDeck
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("%w: decoding extractor output: %w", core.ErrIngestion, err)
	}
	if doc.BasicInfo.TotalSlides < 1 {
		return nil, nil, fmt.Errorf("%w: extractor output has no slides", core.ErrIngestion)
	}

	uploadedAt := input.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now().UTC()
	}

	deckName := deckNameFromPath(doc.BasicInfo.FilePath)
	deck := &core.Deck{
		Id:          core.DeckIDFromName(deckName),
		Name:        deckName,
		SlideCount:  doc.BasicInfo.TotalSlides,
		SlideWidth:  doc.BasicInfo.SlideDimensions.Width,
		SlideHeight: doc.BasicInfo.SlideDimensions.Height,
		Uploader:    input.Uploader,
		UploadedAt:  uploadedAt,
	}

	records := make([]*core.SlideRecord, 0, doc.BasicInfo.TotalSlides)
	for n := 1; n <= doc.BasicInfo.TotalSlides; n++ {
		record := &core.SlideRecord{
			Id:             core.SlideIDFor(deck.Id, n),
			DeckId:         deck.Id,
			SlideNumber:    n,
			Title:          "No Title",
			Uploader:       input.Uploader,
			Tags:           input.Tags,
			Classification: input.Classification,
			UploadedAt:     uploadedAt,
		}
		records = append(records, record)
	}

	// The extractor reports each aspect in its own section, all keyed by
	// 1-based slide number.
	at := func(slideNumber int) *core.SlideRecord {
		if slideNumber < 1 || slideNumber > len(records) {
			return nil
		}
		return records[slideNumber-1]
	}

	for _, t := range doc.Titles {
		if record := at(t.SlideNumber); record != nil && strings.TrimSpace(t.Title) != "" {
			record.Title = strings.TrimSpace(t.Title)
		}
	}

	for _, s := range doc.TextContent.Slides {
		if record := at(s.SlideNumber); record != nil {
			record.RawText = s.TextElements
		}
	}

	for _, n := range doc.Notes {
		if record := at(n.SlideNumber); record != nil {
			record.Notes = n.Notes
		}
	}

	for _, l := range doc.LayoutInfo {
		record := at(l.SlideNumber)
		if record == nil {
			continue
		}
		record.LayoutName = l.LayoutName
		for _, sh := range l.Shapes {
			record.Shapes = append(record.Shapes, core.Shape{
				Name:          sh.Name,
				Kind:          sh.Type,
				HasText:       sh.HasText,
				IsPlaceholder: sh.IsPlaceholder,
			})
		}
	}

	for _, imgs := range doc.ImagesInfo {
		record := at(imgs.SlideNumber)
		if record == nil {
			continue
		}
		for _, img := range imgs.Images {
			box := core.BoundingBox{
				Left:   img.Left,
				Top:    img.Top,
				Width:  img.Width,
				Height: img.Height,
			}
			if !attachImageBox(record, img.ShapeName, box) {
				record.Shapes = append(record.Shapes, core.Shape{
					Name:    img.ShapeName,
					Kind:    "PICTURE",
					IsImage: true,
					Box:     box,
				})
			}
		}
	}

	return deck, records, nil
}

// attachImageBox marks the named layout shape as an image and records its
// position. Returns false when the layout section didn't mention the shape.
func attachImageBox(record *core.SlideRecord, shapeName string, box core.BoundingBox) bool {
	for i := range record.Shapes {
		if record.Shapes[i].Name == shapeName {
			record.Shapes[i].IsImage = true
			record.Shapes[i].Box = box
			return true
		}
	}
	return false
}

// deckNameFromPath derives a stable deck name from the extractor's file path.
func deckNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
