package scripture

import (
	"fmt"

	"github.com/jnthodge/visual-bible/core/canon"
	"github.com/jnthodge/visual-bible/core/errors"
)

// Kind tags the shape of a Passage.
type Kind int

const (
	SingleVerse      Kind = iota + 1 // John 3:16
	WholeChapter                     // John 3
	SameChapterRange                 // John 3:16-18
	CrossRange                       // John 3:16-4:2
	ChapterRange                     // Romans 1-3
)

var kindNames = map[Kind]string{
	SingleVerse:      "single verse",
	WholeChapter:     "whole chapter",
	SameChapterRange: "same-chapter range",
	CrossRange:       "cross-chapter range",
	ChapterRange:     "chapter range",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Passage is parsed, unexpanded reference intent. Which fields are
// meaningful depends on Kind:
//
//	SingleVerse       StartChapter, StartVerse
//	WholeChapter      StartChapter
//	SameChapterRange  StartChapter, StartVerse, EndVerse
//	CrossRange        StartChapter, StartVerse, EndChapter, EndVerse
//	ChapterRange      StartChapter, EndChapter
type Passage struct {
	Kind         Kind
	Book         *canon.Book
	StartChapter int
	StartVerse   int
	EndChapter   int
	EndVerse     int
}

// NewSingleVerse returns a SingleVerse passage.
func NewSingleVerse(book *canon.Book, chapter, verse int) Passage {
	return Passage{Kind: SingleVerse, Book: book, StartChapter: chapter, StartVerse: verse, EndChapter: chapter, EndVerse: verse}
}

// NewWholeChapter returns a WholeChapter passage.
func NewWholeChapter(book *canon.Book, chapter int) Passage {
	return Passage{Kind: WholeChapter, Book: book, StartChapter: chapter, EndChapter: chapter}
}

// NewSameChapterRange returns a verse range inside one chapter. An end verse
// before the start verse is rejected.
func NewSameChapterRange(book *canon.Book, chapter, from, to int) (Passage, error) {
	if to < from {
		return Passage{}, fmt.Errorf("%w: range ends at verse %d before it starts at %d", errors.ErrMalformedRange, to, from)
	}
	return Passage{Kind: SameChapterRange, Book: book, StartChapter: chapter, StartVerse: from, EndChapter: chapter, EndVerse: to}, nil
}

// NewCrossRange returns a range that may span chapters. The end must not
// precede the start.
func NewCrossRange(book *canon.Book, fromChapter, fromVerse, toChapter, toVerse int) (Passage, error) {
	start := VerseID{Book: book.Ordinal, Chapter: fromChapter, Verse: fromVerse}
	end := VerseID{Book: book.Ordinal, Chapter: toChapter, Verse: toVerse}
	if end.Less(start) {
		return Passage{}, fmt.Errorf("%w: range ends at %d:%d before it starts at %d:%d",
			errors.ErrMalformedRange, toChapter, toVerse, fromChapter, fromVerse)
	}
	return Passage{Kind: CrossRange, Book: book, StartChapter: fromChapter, StartVerse: fromVerse, EndChapter: toChapter, EndVerse: toVerse}, nil
}

// NewChapterRange returns a range of whole chapters.
func NewChapterRange(book *canon.Book, from, to int) (Passage, error) {
	if to < from {
		return Passage{}, fmt.Errorf("%w: range ends at chapter %d before it starts at %d", errors.ErrMalformedRange, to, from)
	}
	return Passage{Kind: ChapterRange, Book: book, StartChapter: from, EndChapter: to}, nil
}

// String renders the passage in conventional notation.
func (p Passage) String() string {
	name := "?"
	if p.Book != nil {
		name = p.Book.Name
	}
	switch p.Kind {
	case SingleVerse:
		return fmt.Sprintf("%s %d:%d", name, p.StartChapter, p.StartVerse)
	case WholeChapter:
		return fmt.Sprintf("%s %d", name, p.StartChapter)
	case SameChapterRange:
		return fmt.Sprintf("%s %d:%d-%d", name, p.StartChapter, p.StartVerse, p.EndVerse)
	case CrossRange:
		return fmt.Sprintf("%s %d:%d-%d:%d", name, p.StartChapter, p.StartVerse, p.EndChapter, p.EndVerse)
	case ChapterRange:
		return fmt.Sprintf("%s %d-%d", name, p.StartChapter, p.EndChapter)
	}
	return name
}
