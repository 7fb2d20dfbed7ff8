// Package scripture turns free-form reference text into an ordered set of
// verse identities and binds those verses to regions on a rendered page.
//
// The pipeline is
//
//	SplitCandidates -> ResolveBook -> ParseRange -> Expand -> Merge -> Bind
//
// and Resolver drives the first five stages for whole submissions. Every
// stage is synchronous and only reads the shared canon.Index.
package scripture

import (
	"cmp"
	"fmt"
	"strconv"

	"github.com/jnthodge/visual-bible/core/canon"
	"github.com/jnthodge/visual-bible/core/errors"
)

// VerseID identifies one verse by book ordinal, chapter and verse.
// Bounds are checked at expansion, not construction.
type VerseID struct {
	Book    int `json:"book"`
	Chapter int `json:"chapter"`
	Verse   int `json:"verse"`
}

// Compare orders verse ids by book, then chapter, then verse.
func (v VerseID) Compare(o VerseID) int {
	if c := cmp.Compare(v.Book, o.Book); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Chapter, o.Chapter); c != 0 {
		return c
	}
	return cmp.Compare(v.Verse, o.Verse)
}

// Less reports whether v sorts before o.
func (v VerseID) Less(o VerseID) bool {
	return v.Compare(o) < 0
}

// String returns a book-ordinal form such as "43:3:16", used for logging
// when no index is at hand.
func (v VerseID) String() string {
	return strconv.Itoa(v.Book) + ":" + strconv.Itoa(v.Chapter) + ":" + strconv.Itoa(v.Verse)
}

// Display renders v as "John 3:16" using the canonical book name.
func (v VerseID) Display(idx *canon.Index) string {
	b, ok := idx.Book(v.Book)
	if !ok {
		return v.String()
	}
	return fmt.Sprintf("%s %d:%d", b.Name, v.Chapter, v.Verse)
}

// OSIS renders v as an OSIS id such as "John.3.16".
func (v VerseID) OSIS(idx *canon.Index) string {
	b, ok := idx.Book(v.Book)
	if !ok {
		return v.String()
	}
	return fmt.Sprintf("%s.%d.%d", b.OSIS, v.Chapter, v.Verse)
}

// ParseDisplay parses a single-verse reference such as "John 3:16" back into
// a bounds-checked VerseID.
func ParseDisplay(idx *canon.Index, s string) (VerseID, error) {
	book, rest, err := ResolveBook(idx, s)
	if err != nil {
		return VerseID{}, err
	}
	p, err := ParseRange(book, rest, s)
	if err != nil {
		return VerseID{}, err
	}
	if p.Kind != SingleVerse {
		return VerseID{}, errors.NewReference(errors.ErrMalformedRange, s, "expected a single verse, got %s", p.Kind)
	}
	ids, err := Expand(idx, p)
	if err != nil {
		return VerseID{}, err
	}
	return ids[0], nil
}
