// Package textsource loads verse text corpora used for page layout and
// highlight text. Two formats are read: a CSV export with the header
// book,chapter,verse,text and OSIS XML with <verse osisID="..."> elements.
package textsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jnthodge/visual-bible/core/canon"
	"github.com/jnthodge/visual-bible/core/errors"
	"github.com/jnthodge/visual-bible/core/scripture"
	"github.com/jnthodge/visual-bible/core/xml"
)

// Verse is one verse of a corpus.
type Verse struct {
	ID   scripture.VerseID
	Text string
}

// Corpus is an ordered verse collection. Order is the order the source
// listed the verses, which is the page layout order.
type Corpus struct {
	verses []Verse
	byID   map[scripture.VerseID]int
}

// NewCorpus builds a corpus; later duplicates of a verse are ignored.
func NewCorpus(verses []Verse) *Corpus {
	c := &Corpus{byID: make(map[scripture.VerseID]int, len(verses))}
	for _, v := range verses {
		if _, dup := c.byID[v.ID]; dup {
			continue
		}
		c.byID[v.ID] = len(c.verses)
		c.verses = append(c.verses, v)
	}
	return c
}

// FromIndex returns a text-less corpus covering every verse of idx in
// canonical order.
func FromIndex(idx *canon.Index) *Corpus {
	verses := make([]Verse, 0, idx.TotalVerses())
	for _, b := range idx.Books() {
		for ch, n := range b.Verses {
			for v := 1; v <= n; v++ {
				verses = append(verses, Verse{ID: scripture.VerseID{Book: b.Ordinal, Chapter: ch + 1, Verse: v}})
			}
		}
	}
	return NewCorpus(verses)
}

// Verses returns the corpus in source order. The slice must not be modified.
func (c *Corpus) Verses() []Verse {
	return c.verses
}

// Len returns the verse count.
func (c *Corpus) Len() int {
	return len(c.verses)
}

// Text returns the text of a verse. Verses without text report false.
func (c *Corpus) Text(id scripture.VerseID) (string, bool) {
	i, ok := c.byID[id]
	if !ok || c.verses[i].Text == "" {
		return "", false
	}
	return c.verses[i].Text, true
}

// Has reports whether the corpus lists the verse.
func (c *Corpus) Has(id scripture.VerseID) bool {
	_, ok := c.byID[id]
	return ok
}

// Load reads a corpus file, choosing the format from its extension:
// .csv for CSV and .xml or .osis for OSIS.
func Load(path string, idx *canon.Index) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f, idx)
	case ".xml", ".osis":
		return ReadOSIS(f, idx)
	}
	return nil, errors.NewValidation("text corpus", fmt.Sprintf("unsupported file type %q", filepath.Ext(path)))
}

// ReadCSV reads book,chapter,verse,text rows after a header row. Book names
// go through the alias table, so "Genesis", "Gen" and "1 John" all work.
// Rows with fewer than four fields are skipped.
func ReadCSV(r io.Reader, idx *canon.Index) (*Corpus, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return NewCorpus(nil), nil
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var verses []Verse
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		if len(rec) < 4 {
			continue
		}
		line, _ := cr.FieldPos(0)
		b, err := idx.LookupAlias(rec[0])
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		ch, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: bad chapter %q", line, rec[1])
		}
		v, err := strconv.Atoi(strings.TrimSpace(rec[2]))
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: bad verse %q", line, rec[2])
		}
		verses = append(verses, Verse{
			ID:   scripture.VerseID{Book: b.Ordinal, Chapter: ch, Verse: v},
			Text: strings.TrimSpace(rec[3]),
		})
	}
	return NewCorpus(verses), nil
}

// ReadOSIS streams <verse osisID="Book.C.V"> elements. Milestone verses
// without an osisID are skipped.
func ReadOSIS(r io.Reader, idx *canon.Index) (*Corpus, error) {
	var verses []Verse
	err := xml.Stream(r, "//verse", func(n *xml.Node) error {
		osisID := n.Attr("osisID")
		if osisID == "" {
			return nil
		}
		// Some documents list several ids for a combined verse.
		for _, id := range strings.Fields(osisID) {
			vid, err := parseOSISID(idx, id)
			if err != nil {
				return err
			}
			verses = append(verses, Verse{ID: vid, Text: strings.Join(strings.Fields(n.Text()), " ")})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewCorpus(verses), nil
}

func parseOSISID(idx *canon.Index, id string) (scripture.VerseID, error) {
	parts := strings.Split(id, ".")
	if len(parts) != 3 {
		return scripture.VerseID{}, fmt.Errorf("osisID %q: want Book.Chapter.Verse", id)
	}
	b, err := idx.LookupAlias(parts[0])
	if err != nil {
		return scripture.VerseID{}, fmt.Errorf("osisID %q: %w", id, err)
	}
	ch, err1 := strconv.Atoi(parts[1])
	v, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return scripture.VerseID{}, fmt.Errorf("osisID %q: bad chapter or verse", id)
	}
	return scripture.VerseID{Book: b.Ordinal, Chapter: ch, Verse: v}, nil
}
