package scripture

import (
	"fmt"

	"github.com/jnthodge/visual-bible/core/canon"
	"github.com/jnthodge/visual-bible/core/errors"
)

// Expand turns a passage into its verses in ascending order. Every chapter
// and verse number is checked against idx; zero or anything beyond the
// book's metadata fails with ErrVerseOutOfRange.
func Expand(idx *canon.Index, p Passage) ([]VerseID, error) {
	if p.Book == nil {
		return nil, fmt.Errorf("%w: passage has no book", errors.ErrUnknownBook)
	}
	b := p.Book.Ordinal

	switch p.Kind {
	case SingleVerse:
		if err := checkVerse(idx, p.Book, p.StartChapter, p.StartVerse); err != nil {
			return nil, err
		}
		return []VerseID{{Book: b, Chapter: p.StartChapter, Verse: p.StartVerse}}, nil

	case WholeChapter:
		n, err := chapterLen(idx, p.Book, p.StartChapter)
		if err != nil {
			return nil, err
		}
		return appendVerses(make([]VerseID, 0, n), b, p.StartChapter, 1, n), nil

	case SameChapterRange:
		if err := checkVerse(idx, p.Book, p.StartChapter, p.StartVerse); err != nil {
			return nil, err
		}
		if err := checkVerse(idx, p.Book, p.StartChapter, p.EndVerse); err != nil {
			return nil, err
		}
		return appendVerses(nil, b, p.StartChapter, p.StartVerse, p.EndVerse), nil

	case CrossRange:
		if err := checkVerse(idx, p.Book, p.StartChapter, p.StartVerse); err != nil {
			return nil, err
		}
		if err := checkVerse(idx, p.Book, p.EndChapter, p.EndVerse); err != nil {
			return nil, err
		}
		var out []VerseID
		for ch := p.StartChapter; ch <= p.EndChapter; ch++ {
			n, err := chapterLen(idx, p.Book, ch)
			if err != nil {
				return nil, err
			}
			from, to := 1, n
			if ch == p.StartChapter {
				from = p.StartVerse
			}
			if ch == p.EndChapter {
				to = p.EndVerse
			}
			out = appendVerses(out, b, ch, from, to)
		}
		return out, nil

	case ChapterRange:
		var out []VerseID
		for ch := p.StartChapter; ch <= p.EndChapter; ch++ {
			n, err := chapterLen(idx, p.Book, ch)
			if err != nil {
				return nil, err
			}
			out = appendVerses(out, b, ch, 1, n)
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: unknown passage kind %d", errors.ErrMalformedRange, int(p.Kind))
}

func appendVerses(out []VerseID, book, chapter, from, to int) []VerseID {
	for v := from; v <= to; v++ {
		out = append(out, VerseID{Book: book, Chapter: chapter, Verse: v})
	}
	return out
}

func chapterLen(idx *canon.Index, book *canon.Book, chapter int) (int, error) {
	n, err := idx.VerseCount(book.Ordinal, chapter)
	if err != nil {
		return 0, fmt.Errorf("%w: %s has %d chapters", errors.ErrVerseOutOfRange, book.Name, book.ChapterCount())
	}
	return n, nil
}

func checkVerse(idx *canon.Index, book *canon.Book, chapter, verse int) error {
	n, err := chapterLen(idx, book, chapter)
	if err != nil {
		return err
	}
	if verse < 1 || verse > n {
		return fmt.Errorf("%w: %s %d has %d verses", errors.ErrVerseOutOfRange, book.Name, chapter, n)
	}
	return nil
}
