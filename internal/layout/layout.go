// Package layout places every verse label of a corpus on a tall page image
// in book columns and answers where a verse ended up.
//
// Labels are drawn top to bottom. Each book starts a new column at the top
// of the page, the New Testament is set apart by an extra gap, and a column
// wraps when it passes the bottom margin.
package layout

import (
	"fmt"

	"github.com/jnthodge/visual-bible/core/canon"
	"github.com/jnthodge/visual-bible/core/errors"
	"github.com/jnthodge/visual-bible/core/scripture"
	"github.com/jnthodge/visual-bible/internal/textsource"
)

// Geometry of the page. Y values are text baselines.
const (
	StartX       = 12
	StartY       = 28
	LineHeight   = 6
	BookGap      = 20
	TestamentGap = 30
	WrapY        = 7800
	ColumnGap    = 42
	CharWidth    = 3
	MinLabel     = 10
	RightMargin  = 80
	BottomMargin = 40
	TitleY       = 14
)

// Label is one positioned verse label.
type Label struct {
	ID   scripture.VerseID
	Text string // display reference, e.g. "John 3:16"
	scripture.BoundingBox
}

// Column marks where a book title is drawn.
type Column struct {
	Book      *canon.Book
	X         int
	Testament bool // first book of the New Testament
}

// Page is a computed layout. It implements scripture.Locator.
type Page struct {
	Width   int
	Height  int
	Labels  []Label
	Columns []Column

	corpus *textsource.Corpus
	byID   map[scripture.VerseID]int
}

// Build lays out every verse in corpus order.
func Build(idx *canon.Index, corpus *textsource.Corpus) (*Page, error) {
	verses := corpus.Verses()
	p := &Page{
		Labels: make([]Label, 0, len(verses)),
		corpus: corpus,
		byID:   make(map[scripture.VerseID]int, len(verses)),
	}

	x, y, maxY := StartX, StartY, 0
	prevBook, seenNT := 0, false
	for _, v := range verses {
		b, ok := idx.Book(v.ID.Book)
		if !ok {
			return nil, fmt.Errorf("layout: verse %v: %w", v.ID, errors.ErrUnknownBook)
		}
		if v.ID.Book != prevBook {
			if prevBook != 0 {
				x += BookGap
			}
			enteringNT := b.Testament == canon.NewTestament && !seenNT
			if enteringNT {
				x += TestamentGap
				seenNT = true
			}
			y = StartY
			prevBook = v.ID.Book
			p.Columns = append(p.Columns, Column{Book: b, X: x, Testament: enteringNT})
		}

		ref := v.ID.Display(idx)
		p.byID[v.ID] = len(p.Labels)
		p.Labels = append(p.Labels, Label{
			ID:          v.ID,
			Text:        ref,
			BoundingBox: scripture.BoundingBox{X: x, Y: y, Width: max(MinLabel, len(ref)*CharWidth), Height: LineHeight},
		})

		y += LineHeight
		maxY = max(maxY, y)
		if y > WrapY {
			x += ColumnGap
			y = StartY
		}
	}

	p.Width = x + RightMargin
	p.Height = maxY + BottomMargin
	return p, nil
}

// Label returns the positioned label for a verse.
func (p *Page) Label(id scripture.VerseID) (Label, bool) {
	i, ok := p.byID[id]
	if !ok {
		return Label{}, false
	}
	return p.Labels[i], true
}

// Locate returns the highlight box for a verse: the label box grown by one
// pixel left, shifted up to cover the glyphs above the baseline.
func (p *Page) Locate(id scripture.VerseID) (scripture.BoundingBox, error) {
	l, ok := p.Label(id)
	if !ok {
		return scripture.BoundingBox{}, fmt.Errorf("%w: %v", errors.ErrNotRendered, id)
	}
	return HighlightBox(l.BoundingBox), nil
}

// Text returns the verse body text from the corpus.
func (p *Page) Text(id scripture.VerseID) (string, bool) {
	return p.corpus.Text(id)
}

// HighlightBox converts a label box into its highlight rectangle.
func HighlightBox(b scripture.BoundingBox) scripture.BoundingBox {
	return scripture.BoundingBox{
		X:      b.X - 1,
		Y:      b.Y - b.Height + 2,
		Width:  b.Width + 3,
		Height: b.Height + 1,
	}
}
