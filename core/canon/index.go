// Package canon holds the canonical book index: book identities, their
// per-chapter verse counts, and the alias table used to recognize informal
// book names.
//
// An Index is immutable after construction and safe for concurrent use.
package canon

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/jnthodge/visual-bible/core/errors"
)

// Testament groups books for display.
type Testament string

const (
	OldTestament Testament = "OT"
	NewTestament Testament = "NT"
)

// Book is a canonical scripture book.
type Book struct {
	Ordinal   int       `json:"ordinal"`
	Name      string    `json:"name"`
	OSIS      string    `json:"osis"`
	Testament Testament `json:"testament"`
	Verses    []int     `json:"verses"` // verse count per chapter, index 0 = chapter 1
}

// ChapterCount returns the number of chapters in the book.
func (b *Book) ChapterCount() int {
	return len(b.Verses)
}

// Alias is one normalized alias and the book it resolves to.
type Alias struct {
	Key  string
	Book *Book
}

// Index is the read-only book index.
type Index struct {
	books   []*Book
	byAlias map[string]*Book
	aliases []Alias // sorted by Key
}

// Normalize lowercases s and strips everything that is not a letter or digit.
// "1 John", "1john" and "1-JOHN." all normalize to "1john".
func Normalize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

// NewIndex validates books and builds the alias table. Each book's canonical
// name and OSIS id are registered as aliases. Keys of aliases may name a book
// by canonical name or OSIS id. Two distinct books claiming the same
// normalized alias is a construction error.
func NewIndex(books []Book, aliases map[string][]string) (*Index, error) {
	if len(books) == 0 {
		return nil, errors.NewConfig("book index", "no books")
	}

	idx := &Index{
		books:   make([]*Book, 0, len(books)),
		byAlias: make(map[string]*Book, len(books)*6),
	}
	byOrdinal := make(map[int]*Book, len(books))

	for i := range books {
		b := books[i]
		if b.Ordinal < 1 {
			return nil, errors.NewConfig("book index", "book %q has ordinal %d", b.Name, b.Ordinal)
		}
		if prev, ok := byOrdinal[b.Ordinal]; ok {
			return nil, errors.NewConfig("book index", "ordinal %d claimed by %s and %s", b.Ordinal, prev.Name, b.Name)
		}
		if Normalize(b.Name) == "" {
			return nil, errors.NewConfig("book index", "book %d has no name", b.Ordinal)
		}
		if len(b.Verses) == 0 {
			return nil, errors.NewConfig("book index", "book %s has no chapters", b.Name)
		}
		for ch, n := range b.Verses {
			if n < 1 {
				return nil, errors.NewConfig("book index", "%s %d has verse count %d", b.Name, ch+1, n)
			}
		}
		b.Verses = append([]int(nil), b.Verses...)
		bp := &b
		byOrdinal[b.Ordinal] = bp
		idx.books = append(idx.books, bp)
	}
	sort.Slice(idx.books, func(i, j int) bool { return idx.books[i].Ordinal < idx.books[j].Ordinal })

	byName := make(map[string]*Book, len(idx.books)*2)
	for _, b := range idx.books {
		for _, form := range []string{b.Name, b.OSIS} {
			if err := idx.register(form, b); err != nil {
				return nil, err
			}
			if form != "" {
				byName[Normalize(form)] = b
			}
		}
	}

	// Deterministic registration order keeps error messages stable.
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b, ok := byName[Normalize(k)]
		if !ok {
			return nil, errors.NewConfig("alias table", "aliases given for unknown book %q", k)
		}
		for _, form := range aliases[k] {
			if err := idx.register(form, b); err != nil {
				return nil, err
			}
		}
	}

	idx.aliases = make([]Alias, 0, len(idx.byAlias))
	for key, b := range idx.byAlias {
		idx.aliases = append(idx.aliases, Alias{Key: key, Book: b})
	}
	sort.Slice(idx.aliases, func(i, j int) bool { return idx.aliases[i].Key < idx.aliases[j].Key })

	return idx, nil
}

func (idx *Index) register(form string, b *Book) error {
	key := Normalize(form)
	if key == "" {
		if form == "" {
			return nil
		}
		return errors.NewConfig("alias table", "alias %q for %s normalizes to nothing", form, b.Name)
	}
	if prev, ok := idx.byAlias[key]; ok && prev != b {
		return errors.NewConfig("alias table", "alias %q claimed by %s and %s", key, prev.Name, b.Name)
	}
	idx.byAlias[key] = b
	return nil
}

// LookupAlias resolves token by exact normalized alias match.
func (idx *Index) LookupAlias(token string) (*Book, error) {
	key := Normalize(token)
	if b, ok := idx.byAlias[key]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %q", errors.ErrUnknownBook, token)
}

// Aliases returns every alias sorted by key. The slice must not be modified.
func (idx *Index) Aliases() []Alias {
	return idx.aliases
}

// AliasesFor returns the alias keys that resolve to the given book.
func (idx *Index) AliasesFor(ordinal int) []string {
	var out []string
	for _, a := range idx.aliases {
		if a.Book.Ordinal == ordinal {
			out = append(out, a.Key)
		}
	}
	return out
}

// Books returns the books in ordinal order. The slice must not be modified.
func (idx *Index) Books() []*Book {
	return idx.books
}

// Book returns the book with the given ordinal.
func (idx *Index) Book(ordinal int) (*Book, bool) {
	// Ordinals are usually dense and 1-based.
	if ordinal >= 1 && ordinal <= len(idx.books) && idx.books[ordinal-1].Ordinal == ordinal {
		return idx.books[ordinal-1], true
	}
	for _, b := range idx.books {
		if b.Ordinal == ordinal {
			return b, true
		}
	}
	return nil, false
}

// ChapterCount returns the number of chapters in the book, or 0 if the
// ordinal is unknown.
func (idx *Index) ChapterCount(ordinal int) int {
	b, ok := idx.Book(ordinal)
	if !ok {
		return 0
	}
	return b.ChapterCount()
}

// VerseCount returns the number of verses in a chapter.
func (idx *Index) VerseCount(ordinal, chapter int) (int, error) {
	b, ok := idx.Book(ordinal)
	if !ok {
		return 0, fmt.Errorf("%w: book %d", errors.ErrUnknownBook, ordinal)
	}
	if chapter < 1 || chapter > len(b.Verses) {
		return 0, fmt.Errorf("%w: %s has %d chapters, not %d", errors.ErrVerseOutOfRange, b.Name, len(b.Verses), chapter)
	}
	return b.Verses[chapter-1], nil
}

// TotalVerses returns the verse count of the whole index.
func (idx *Index) TotalVerses() int {
	total := 0
	for _, b := range idx.books {
		for _, n := range b.Verses {
			total += n
		}
	}
	return total
}
