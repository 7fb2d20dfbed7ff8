package scripture

import (
	"regexp"
	"strings"

	"github.com/jnthodge/visual-bible/core/canon"
	"github.com/jnthodge/visual-bible/core/errors"
)

// bookToken matches the leading book name of a line: an optional numeric
// prefix followed by letters, spaces and periods ("1Jn", "1 John.",
// "Song of Solomon").
var bookToken = regexp.MustCompile(`^(?:\d+\s*)?\p{L}[\p{L}\s.]*`)

// minFuzzyAlias is the shortest alias or token considered for prefix
// matching. Two-letter abbreviations and tokens only match exactly.
const minFuzzyAlias = 3

// ResolveBook resolves the leading book token of line and returns the book
// and the unconsumed remainder. An exact alias match wins. Otherwise the
// longest alias that is a prefix of the token, or that the token is a
// prefix of, is chosen, with ties going to the lowest ordinal.
func ResolveBook(idx *canon.Index, line string) (*canon.Book, string, error) {
	line = strings.TrimSpace(line)
	loc := bookToken.FindStringIndex(line)
	if loc == nil {
		return nil, "", errors.NewReference(errors.ErrUnknownBook, line, "no book name at start of line")
	}
	token, rest := line[:loc[1]], line[loc[1]:]
	key := canon.Normalize(token)

	if b, err := idx.LookupAlias(key); err == nil {
		return b, rest, nil
	}

	var best *canon.Book
	bestLen := 0
	for _, a := range idx.Aliases() {
		if len(a.Key) < minFuzzyAlias {
			continue
		}
		if !strings.HasPrefix(key, a.Key) && !(len(key) >= minFuzzyAlias && strings.HasPrefix(a.Key, key)) {
			continue
		}
		if len(a.Key) > bestLen || (len(a.Key) == bestLen && a.Book.Ordinal < best.Ordinal) {
			best, bestLen = a.Book, len(a.Key)
		}
	}
	if best == nil {
		return nil, "", errors.NewReference(errors.ErrUnknownBook, line, "no book matches %q", strings.TrimSpace(token))
	}
	return best, rest, nil
}
