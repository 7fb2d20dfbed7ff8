package scripture

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Candidate is one trimmed, non-empty reference candidate.
type Candidate struct {
	Line int    // 1-based line in the source text
	Text string // folded candidate text fed to the parser
	Raw  string // trimmed candidate as submitted, for error reports
}

var dashReplacer = strings.NewReplacer(
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
	"−", "-", // minus sign
)

// isSeparator reports whether r folds to ';' or ','.
func isSeparator(r rune) bool {
	if r == ';' || r == ',' {
		return true
	}
	if r < utf8.RuneSelf {
		return false
	}
	f := norm.NFKC.String(string(r))
	return f == ";" || f == ","
}

func fold(s string) string {
	return strings.TrimSpace(dashReplacer.Replace(norm.NFKC.String(s)))
}

// SplitCandidates splits raw text into reference candidates. Lines end at
// CRLF, LF or a lone CR, and a line may hold several references separated
// by ';' or ','. Full-width digits and punctuation are folded by NFKC and
// typographic dashes become '-'. Empty pieces are dropped.
func SplitCandidates(text string) []Candidate {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []Candidate
	for i, line := range strings.Split(text, "\n") {
		for _, p := range strings.FieldsFunc(line, isSeparator) {
			raw := strings.TrimSpace(p)
			folded := fold(raw)
			if folded == "" {
				continue
			}
			out = append(out, Candidate{Line: i + 1, Text: folded, Raw: raw})
		}
	}
	return out
}
