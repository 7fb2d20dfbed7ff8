package scripture

import (
	"fmt"

	"github.com/jnthodge/visual-bible/core/canon"
	"github.com/jnthodge/visual-bible/core/errors"
)

// MissingText is shown for verses whose body text is not available.
const MissingText = "Reference not found in loaded Bible dataset."

// BoundingBox is a pixel rectangle on the rendered page.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Locator maps verses to the rendered page. Locate returns an error wrapping
// errors.ErrNotRendered when the verse has no position.
type Locator interface {
	Locate(v VerseID) (BoundingBox, error)
	Text(v VerseID) (string, bool)
}

// HighlightRegion is a verse bound to its box on the page.
type HighlightRegion struct {
	ID    VerseID `json:"verseId"`
	Verse string  `json:"verse"`
	Text  string  `json:"text"`
	BoundingBox
}

// Warning is a non-fatal binding problem.
type Warning struct {
	Verse   VerseID `json:"-"`
	Message string  `json:"message"`
}

func (w Warning) String() string { return w.Message }

// Bind joins verses against loc, producing one region per located verse in
// the order of verses. Verses the locator cannot place become warnings.
func Bind(idx *canon.Index, verses VerseSet, loc Locator) ([]HighlightRegion, []Warning) {
	regions := make([]HighlightRegion, 0, len(verses))
	var warnings []Warning
	for _, v := range verses {
		display := v.Display(idx)
		box, err := loc.Locate(v)
		if err != nil {
			msg := fmt.Sprintf("verse %s not found on rendered page", display)
			if !errors.Is(err, errors.ErrNotRendered) {
				msg = fmt.Sprintf("verse %s could not be located: %v", display, err)
			}
			warnings = append(warnings, Warning{Verse: v, Message: msg})
			continue
		}
		text, ok := loc.Text(v)
		if !ok {
			text = MissingText
		}
		regions = append(regions, HighlightRegion{ID: v, Verse: display, Text: text, BoundingBox: box})
	}
	return regions, warnings
}
