package scripture

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/jnthodge/visual-bible/core/canon"
	"github.com/jnthodge/visual-bible/core/errors"
)

// rangeGrammar is the chapter/verse remainder after the book name.
// Examples: "3", "3:16", "3:16-18", "3:16-4:2", "1-3".
type rangeGrammar struct {
	Start *point `parser:"@@"`
	End   *point `parser:"( \"-\" @@ )?"`
}

type point struct {
	First  int  `parser:"@Int"`
	Second *int `parser:"( (\":\" | \".\") @Int )?"`
}

var rangeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[:.\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var rangeParser = participle.MustBuild[rangeGrammar](
	participle.Lexer(rangeLexer),
	participle.Elide("Whitespace"),
)

// ParseRange parses the chapter/verse remainder of a line into a Passage
// for book. line is the full candidate text and is used in error messages.
// One trailing period ends a sentence ("Romans 11."). Numbers are not
// bounds-checked here.
func ParseRange(book *canon.Book, remainder, line string) (Passage, error) {
	remainder = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(remainder), "."))
	if remainder == "" {
		return Passage{}, errors.NewReference(errors.ErrMalformedRange, line, "missing chapter after %s", book.Name)
	}

	g, err := rangeParser.ParseString("", remainder)
	if err != nil {
		return Passage{}, errors.NewReference(errors.ErrMalformedRange, line, "unrecognized chapter/verse %q", remainder)
	}

	var p Passage
	s, e := g.Start, g.End
	switch {
	case e == nil && s.Second == nil:
		p = NewWholeChapter(book, s.First)
	case e == nil:
		p = NewSingleVerse(book, s.First, *s.Second)
	case s.Second != nil && e.Second == nil:
		p, err = NewSameChapterRange(book, s.First, *s.Second, e.First)
	case s.Second != nil:
		p, err = NewCrossRange(book, s.First, *s.Second, e.First, *e.Second)
	case e.Second == nil:
		p, err = NewChapterRange(book, s.First, e.First)
	default:
		// "3-4:2" names a verse only at the end.
		return Passage{}, errors.NewReference(errors.ErrMalformedRange, line, "range %q mixes a chapter with a verse", remainder)
	}
	if err != nil {
		return Passage{}, &errors.ReferenceError{Text: line, Message: err.Error(), Err: err}
	}
	return p, nil
}
