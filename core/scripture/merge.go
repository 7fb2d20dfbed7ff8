package scripture

import "github.com/jnthodge/visual-bible/core/canon"

// VerseSet is an ordered sequence of unique verses. Order is first-seen
// order across the input, not canonical order.
type VerseSet []VerseID

// Merge concatenates groups in order and keeps the first occurrence of each
// verse.
func Merge(groups ...[]VerseID) VerseSet {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	seen := make(map[VerseID]struct{}, n)
	out := make(VerseSet, 0, n)
	for _, g := range groups {
		for _, v := range g {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// Contains reports whether v is in the set.
func (s VerseSet) Contains(v VerseID) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Display renders every verse as "Book C:V".
func (s VerseSet) Display(idx *canon.Index) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.Display(idx)
	}
	return out
}
