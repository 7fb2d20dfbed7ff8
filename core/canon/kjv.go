package canon

import (
	"sync"

	"github.com/jnthodge/visual-bible/core/errors"
)

// kjvBooks is the 66-book Protestant canon with KJV verse counts.
var kjvBooks = []Book{
	{Ordinal: 1, Testament: OldTestament, Name: "Genesis", OSIS: "Gen", Verses: []int{31, 25, 24, 26, 32, 22, 24, 22, 29, 32, 32, 20, 18, 24, 21, 16, 27, 33, 38, 18, 34, 24, 20, 67, 34, 35, 46, 22, 35, 43, 55, 32, 20, 31, 29, 43, 36, 30, 23, 23, 57, 38, 34, 34, 28, 34, 31, 22, 33, 26}},
	{Ordinal: 2, Testament: OldTestament, Name: "Exodus", OSIS: "Exod", Verses: []int{22, 25, 22, 31, 23, 30, 25, 32, 35, 29, 10, 51, 22, 31, 27, 36, 16, 27, 25, 26, 36, 31, 33, 18, 40, 37, 21, 43, 46, 38, 18, 35, 23, 35, 35, 38, 29, 31, 43, 38}},
	{Ordinal: 3, Testament: OldTestament, Name: "Leviticus", OSIS: "Lev", Verses: []int{17, 16, 17, 35, 19, 30, 38, 36, 24, 20, 47, 8, 59, 57, 33, 34, 16, 30, 37, 27, 24, 33, 44, 23, 55, 46, 34}},
	{Ordinal: 4, Testament: OldTestament, Name: "Numbers", OSIS: "Num", Verses: []int{54, 34, 51, 49, 31, 27, 89, 26, 23, 36, 35, 16, 33, 45, 41, 50, 13, 32, 22, 29, 35, 41, 30, 25, 18, 65, 23, 31, 40, 16, 54, 42, 56, 29, 34, 13}},
	{Ordinal: 5, Testament: OldTestament, Name: "Deuteronomy", OSIS: "Deut", Verses: []int{46, 37, 29, 49, 33, 25, 26, 20, 29, 22, 32, 32, 18, 29, 23, 22, 20, 22, 21, 20, 23, 30, 25, 22, 19, 19, 26, 68, 29, 20, 30, 52, 29, 12}},
	{Ordinal: 6, Testament: OldTestament, Name: "Joshua", OSIS: "Josh", Verses: []int{18, 24, 17, 24, 15, 27, 26, 35, 27, 43, 23, 24, 33, 15, 63, 10, 18, 28, 51, 9, 45, 34, 16, 33}},
	{Ordinal: 7, Testament: OldTestament, Name: "Judges", OSIS: "Judg", Verses: []int{36, 23, 31, 24, 31, 40, 25, 35, 57, 18, 40, 15, 25, 20, 20, 31, 13, 31, 30, 48, 25}},
	{Ordinal: 8, Testament: OldTestament, Name: "Ruth", OSIS: "Ruth", Verses: []int{22, 23, 18, 22}},
	{Ordinal: 9, Testament: OldTestament, Name: "1 Samuel", OSIS: "1Sam", Verses: []int{28, 36, 21, 22, 12, 21, 17, 22, 27, 27, 15, 25, 23, 52, 35, 23, 58, 30, 24, 42, 15, 23, 29, 22, 44, 25, 12, 25, 11, 31, 13}},
	{Ordinal: 10, Testament: OldTestament, Name: "2 Samuel", OSIS: "2Sam", Verses: []int{27, 32, 39, 12, 25, 23, 29, 18, 13, 19, 27, 31, 39, 33, 37, 23, 29, 33, 43, 26, 22, 51, 39, 25}},
	{Ordinal: 11, Testament: OldTestament, Name: "1 Kings", OSIS: "1Kgs", Verses: []int{53, 46, 28, 34, 18, 38, 51, 66, 28, 29, 43, 33, 34, 31, 34, 34, 24, 46, 21, 43, 29, 53}},
	{Ordinal: 12, Testament: OldTestament, Name: "2 Kings", OSIS: "2Kgs", Verses: []int{18, 25, 27, 44, 27, 33, 20, 29, 37, 36, 21, 21, 25, 29, 38, 20, 41, 37, 37, 21, 26, 20, 37, 20, 30}},
	{Ordinal: 13, Testament: OldTestament, Name: "1 Chronicles", OSIS: "1Chr", Verses: []int{54, 55, 24, 43, 26, 81, 40, 40, 44, 14, 47, 40, 14, 17, 29, 43, 27, 17, 19, 8, 30, 19, 32, 31, 31, 32, 34, 21, 30}},
	{Ordinal: 14, Testament: OldTestament, Name: "2 Chronicles", OSIS: "2Chr", Verses: []int{17, 18, 17, 22, 14, 42, 22, 18, 31, 19, 23, 16, 22, 15, 19, 14, 19, 34, 11, 37, 20, 12, 21, 27, 28, 23, 9, 27, 36, 27, 21, 33, 25, 33, 27, 23}},
	{Ordinal: 15, Testament: OldTestament, Name: "Ezra", OSIS: "Ezra", Verses: []int{11, 70, 13, 24, 17, 22, 28, 36, 15, 44}},
	{Ordinal: 16, Testament: OldTestament, Name: "Nehemiah", OSIS: "Neh", Verses: []int{11, 20, 32, 23, 19, 19, 73, 18, 38, 39, 36, 47, 31}},
	{Ordinal: 17, Testament: OldTestament, Name: "Esther", OSIS: "Esth", Verses: []int{22, 23, 15, 17, 14, 14, 10, 17, 32, 3}},
	{Ordinal: 18, Testament: OldTestament, Name: "Job", OSIS: "Job", Verses: []int{22, 13, 26, 21, 27, 30, 21, 22, 35, 22, 20, 25, 28, 22, 35, 22, 16, 21, 29, 29, 34, 30, 17, 25, 6, 14, 23, 28, 25, 31, 40, 22, 33, 37, 16, 33, 24, 41, 30, 24, 34, 17}},
	{Ordinal: 19, Testament: OldTestament, Name: "Psalms", OSIS: "Ps", Verses: []int{6, 12, 8, 8, 12, 10, 17, 9, 20, 18, 7, 8, 6, 7, 5, 11, 15, 50, 14, 9, 13, 31, 6, 10, 22, 12, 14, 9, 11, 12, 24, 11, 22, 22, 28, 12, 40, 22, 13, 17, 13, 11, 5, 26, 17, 11, 9, 14, 20, 23, 19, 9, 6, 7, 23, 13, 11, 11, 17, 12, 8, 12, 11, 10, 13, 20, 7, 35, 36, 5, 24, 20, 28, 23, 10, 12, 20, 72, 13, 19, 16, 8, 18, 12, 13, 17, 7, 18, 52, 17, 16, 15, 5, 23, 11, 13, 12, 9, 9, 5, 8, 28, 22, 35, 45, 48, 43, 13, 31, 7, 10, 10, 9, 8, 18, 19, 2, 29, 176, 7, 8, 9, 4, 8, 5, 6, 5, 6, 8, 8, 3, 18, 3, 3, 21, 26, 9, 8, 24, 13, 10, 7, 12, 15, 21, 10, 20, 14, 9, 6}},
	{Ordinal: 20, Testament: OldTestament, Name: "Proverbs", OSIS: "Prov", Verses: []int{33, 22, 35, 27, 23, 35, 27, 36, 18, 32, 31, 28, 25, 35, 33, 33, 28, 24, 29, 30, 31, 29, 35, 34, 28, 28, 27, 28, 27, 33, 31}},
	{Ordinal: 21, Testament: OldTestament, Name: "Ecclesiastes", OSIS: "Eccl", Verses: []int{18, 26, 22, 16, 20, 12, 29, 17, 18, 20, 10, 14}},
	{Ordinal: 22, Testament: OldTestament, Name: "Song of Solomon", OSIS: "Song", Verses: []int{17, 17, 11, 16, 16, 13, 13, 14}},
	{Ordinal: 23, Testament: OldTestament, Name: "Isaiah", OSIS: "Isa", Verses: []int{31, 22, 26, 6, 30, 13, 25, 22, 21, 34, 16, 6, 22, 32, 9, 14, 14, 7, 25, 6, 17, 25, 18, 23, 12, 21, 13, 29, 24, 33, 9, 20, 24, 17, 10, 22, 38, 22, 8, 31, 29, 25, 28, 28, 25, 13, 15, 22, 26, 11, 23, 15, 12, 17, 13, 12, 21, 14, 21, 22, 11, 12, 19, 12, 25, 24}},
	{Ordinal: 24, Testament: OldTestament, Name: "Jeremiah", OSIS: "Jer", Verses: []int{19, 37, 25, 31, 31, 30, 34, 22, 26, 25, 23, 17, 27, 22, 21, 21, 27, 23, 15, 18, 14, 30, 40, 10, 38, 24, 22, 17, 32, 24, 40, 44, 26, 22, 19, 32, 21, 28, 18, 16, 18, 22, 13, 30, 5, 28, 7, 47, 39, 46, 64, 34}},
	{Ordinal: 25, Testament: OldTestament, Name: "Lamentations", OSIS: "Lam", Verses: []int{22, 22, 66, 22, 22}},
	{Ordinal: 26, Testament: OldTestament, Name: "Ezekiel", OSIS: "Ezek", Verses: []int{28, 10, 27, 17, 17, 14, 27, 18, 11, 22, 25, 28, 23, 23, 8, 63, 24, 32, 14, 49, 32, 31, 49, 27, 17, 21, 36, 26, 21, 26, 18, 32, 33, 31, 15, 38, 28, 23, 29, 49, 26, 20, 27, 31, 25, 24, 23, 35}},
	{Ordinal: 27, Testament: OldTestament, Name: "Daniel", OSIS: "Dan", Verses: []int{21, 49, 30, 37, 31, 28, 28, 27, 27, 21, 45, 13}},
	{Ordinal: 28, Testament: OldTestament, Name: "Hosea", OSIS: "Hos", Verses: []int{11, 23, 5, 19, 15, 11, 16, 14, 17, 15, 12, 14, 16, 9}},
	{Ordinal: 29, Testament: OldTestament, Name: "Joel", OSIS: "Joel", Verses: []int{20, 32, 21}},
	{Ordinal: 30, Testament: OldTestament, Name: "Amos", OSIS: "Amos", Verses: []int{15, 16, 15, 13, 27, 14, 17, 14, 15}},
	{Ordinal: 31, Testament: OldTestament, Name: "Obadiah", OSIS: "Obad", Verses: []int{21}},
	{Ordinal: 32, Testament: OldTestament, Name: "Jonah", OSIS: "Jonah", Verses: []int{17, 10, 10, 11}},
	{Ordinal: 33, Testament: OldTestament, Name: "Micah", OSIS: "Mic", Verses: []int{16, 13, 12, 13, 15, 16, 20}},
	{Ordinal: 34, Testament: OldTestament, Name: "Nahum", OSIS: "Nah", Verses: []int{15, 13, 19}},
	{Ordinal: 35, Testament: OldTestament, Name: "Habakkuk", OSIS: "Hab", Verses: []int{17, 20, 19}},
	{Ordinal: 36, Testament: OldTestament, Name: "Zephaniah", OSIS: "Zeph", Verses: []int{18, 15, 20}},
	{Ordinal: 37, Testament: OldTestament, Name: "Haggai", OSIS: "Hag", Verses: []int{15, 23}},
	{Ordinal: 38, Testament: OldTestament, Name: "Zechariah", OSIS: "Zech", Verses: []int{21, 13, 10, 14, 11, 15, 14, 23, 17, 12, 17, 14, 9, 21}},
	{Ordinal: 39, Testament: OldTestament, Name: "Malachi", OSIS: "Mal", Verses: []int{14, 17, 18, 6}},
	{Ordinal: 40, Testament: NewTestament, Name: "Matthew", OSIS: "Matt", Verses: []int{25, 23, 17, 25, 48, 34, 29, 34, 38, 42, 30, 50, 58, 36, 39, 28, 27, 35, 30, 34, 46, 46, 39, 51, 46, 75, 66, 20}},
	{Ordinal: 41, Testament: NewTestament, Name: "Mark", OSIS: "Mark", Verses: []int{45, 28, 35, 41, 43, 56, 37, 38, 50, 52, 33, 44, 37, 72, 47, 20}},
	{Ordinal: 42, Testament: NewTestament, Name: "Luke", OSIS: "Luke", Verses: []int{80, 52, 38, 44, 39, 49, 50, 56, 62, 42, 54, 59, 35, 35, 32, 31, 37, 43, 48, 47, 38, 71, 56, 53}},
	{Ordinal: 43, Testament: NewTestament, Name: "John", OSIS: "John", Verses: []int{51, 25, 36, 54, 47, 71, 53, 59, 41, 42, 57, 50, 38, 31, 27, 33, 26, 40, 42, 31, 25}},
	{Ordinal: 44, Testament: NewTestament, Name: "Acts", OSIS: "Acts", Verses: []int{26, 47, 26, 37, 42, 15, 60, 40, 43, 48, 30, 25, 52, 28, 41, 40, 34, 28, 41, 38, 40, 30, 35, 27, 27, 32, 44, 31}},
	{Ordinal: 45, Testament: NewTestament, Name: "Romans", OSIS: "Rom", Verses: []int{32, 29, 31, 25, 21, 23, 25, 39, 33, 21, 36, 21, 14, 23, 33, 27}},
	{Ordinal: 46, Testament: NewTestament, Name: "1 Corinthians", OSIS: "1Cor", Verses: []int{31, 16, 23, 21, 13, 20, 40, 13, 27, 33, 34, 31, 13, 40, 58, 24}},
	{Ordinal: 47, Testament: NewTestament, Name: "2 Corinthians", OSIS: "2Cor", Verses: []int{24, 17, 18, 18, 21, 18, 16, 24, 15, 18, 33, 21, 14}},
	{Ordinal: 48, Testament: NewTestament, Name: "Galatians", OSIS: "Gal", Verses: []int{24, 21, 29, 31, 26, 18}},
	{Ordinal: 49, Testament: NewTestament, Name: "Ephesians", OSIS: "Eph", Verses: []int{23, 22, 21, 32, 33, 24}},
	{Ordinal: 50, Testament: NewTestament, Name: "Philippians", OSIS: "Phil", Verses: []int{30, 30, 21, 23}},
	{Ordinal: 51, Testament: NewTestament, Name: "Colossians", OSIS: "Col", Verses: []int{29, 23, 25, 18}},
	{Ordinal: 52, Testament: NewTestament, Name: "1 Thessalonians", OSIS: "1Thess", Verses: []int{10, 20, 13, 18, 28}},
	{Ordinal: 53, Testament: NewTestament, Name: "2 Thessalonians", OSIS: "2Thess", Verses: []int{12, 17, 18}},
	{Ordinal: 54, Testament: NewTestament, Name: "1 Timothy", OSIS: "1Tim", Verses: []int{20, 15, 16, 16, 25, 21}},
	{Ordinal: 55, Testament: NewTestament, Name: "2 Timothy", OSIS: "2Tim", Verses: []int{18, 26, 17, 22}},
	{Ordinal: 56, Testament: NewTestament, Name: "Titus", OSIS: "Titus", Verses: []int{16, 15, 15}},
	{Ordinal: 57, Testament: NewTestament, Name: "Philemon", OSIS: "Phlm", Verses: []int{25}},
	{Ordinal: 58, Testament: NewTestament, Name: "Hebrews", OSIS: "Heb", Verses: []int{14, 18, 19, 16, 14, 20, 28, 13, 28, 39, 40, 29, 25}},
	{Ordinal: 59, Testament: NewTestament, Name: "James", OSIS: "Jas", Verses: []int{27, 26, 18, 17, 20}},
	{Ordinal: 60, Testament: NewTestament, Name: "1 Peter", OSIS: "1Pet", Verses: []int{25, 25, 22, 19, 14}},
	{Ordinal: 61, Testament: NewTestament, Name: "2 Peter", OSIS: "2Pet", Verses: []int{21, 22, 18}},
	{Ordinal: 62, Testament: NewTestament, Name: "1 John", OSIS: "1John", Verses: []int{10, 29, 24, 21, 21}},
	{Ordinal: 63, Testament: NewTestament, Name: "2 John", OSIS: "2John", Verses: []int{13}},
	{Ordinal: 64, Testament: NewTestament, Name: "3 John", OSIS: "3John", Verses: []int{14}},
	{Ordinal: 65, Testament: NewTestament, Name: "Jude", OSIS: "Jude", Verses: []int{25}},
	{Ordinal: 66, Testament: NewTestament, Name: "Revelation", OSIS: "Rev", Verses: []int{20, 29, 22, 11, 14, 17, 17, 13, 21, 11, 19, 17, 18, 20, 8, 21, 18, 24, 21, 15, 27, 21}},
}

// kjvAliases lists the common abbreviations accepted for each book, keyed by
// canonical name. Roman-numeral forms ("ii kings") are included.
var kjvAliases = map[string][]string{
	"Genesis":         {"gen", "ge", "gn"},
	"Exodus":          {"exo", "ex", "exod"},
	"Leviticus":       {"lev", "le", "lv"},
	"Numbers":         {"num", "nu", "nm", "nb"},
	"Deuteronomy":     {"deu", "dt"},
	"Joshua":          {"jos", "josh"},
	"Judges":          {"jdg", "judg", "jg"},
	"Ruth":            {"rth", "ru"},
	"1 Samuel":        {"1sam", "1sa", "i samuel", "i sam"},
	"2 Samuel":        {"2sam", "2sa", "ii samuel", "ii sam"},
	"1 Kings":         {"1ki", "1kgs", "i kings"},
	"2 Kings":         {"2ki", "2kgs", "ii kings"},
	"1 Chronicles":    {"1ch", "1chr", "i chronicles"},
	"2 Chronicles":    {"2ch", "2chr", "ii chronicles"},
	"Ezra":            {"ezr"},
	"Nehemiah":        {"neh"},
	"Esther":          {"est", "esth"},
	"Job":             {"jb"},
	"Psalms":          {"ps", "psa", "psalm", "pss"},
	"Proverbs":        {"pro", "prov", "prv"},
	"Ecclesiastes":    {"ecc", "ec", "eccl", "qoh"},
	"Song of Solomon": {"song", "sos", "song of songs", "canticles"},
	"Isaiah":          {"isa", "is"},
	"Jeremiah":        {"jer", "je"},
	"Lamentations":    {"lam", "la"},
	"Ezekiel":         {"ezk", "eze", "ezek"},
	"Daniel":          {"dan", "da", "dn"},
	"Hosea":           {"hos", "ho"},
	"Joel":            {"joe", "jl"},
	"Amos":            {"amo", "am"},
	"Obadiah":         {"oba", "ob", "obad"},
	"Jonah":           {"jon", "jnh"},
	"Micah":           {"mic", "mc"},
	"Nahum":           {"nah", "na"},
	"Habakkuk":        {"hab", "hb"},
	"Zephaniah":       {"zep", "zp", "zeph"},
	"Haggai":          {"hag", "hg"},
	"Zechariah":       {"zec", "zc", "zech"},
	"Malachi":         {"mal", "ml"},
	"Matthew":         {"mat", "mt", "matt"},
	"Mark":            {"mrk", "mk", "mar"},
	"Luke":            {"luk", "lk"},
	"John":            {"jhn", "jn", "joh"},
	"Acts":            {"act", "ac"},
	"Romans":          {"rom", "ro", "rm"},
	"1 Corinthians":   {"1cor", "1co", "i corinthians", "i cor"},
	"2 Corinthians":   {"2cor", "2co", "ii corinthians", "ii cor"},
	"Galatians":       {"gal", "ga"},
	"Ephesians":       {"eph", "ep"},
	"Philippians":     {"php", "phil", "ph"},
	"Colossians":      {"col", "co"},
	"1 Thessalonians": {"1th", "1thes", "1thess", "i thessalonians"},
	"2 Thessalonians": {"2th", "2thes", "2thess", "ii thessalonians"},
	"1 Timothy":       {"1tim", "1ti", "i timothy"},
	"2 Timothy":       {"2tim", "2ti", "ii timothy"},
	"Titus":           {"tit", "ti"},
	"Philemon":        {"phm", "phile", "phlm"},
	"Hebrews":         {"heb", "he"},
	"James":           {"jas", "jm"},
	"1 Peter":         {"1pet", "1pe", "i peter"},
	"2 Peter":         {"2pet", "2pe", "ii peter"},
	"1 John":          {"1jn", "1joh", "i john"},
	"2 John":          {"2jn", "2joh", "ii john"},
	"3 John":          {"3jn", "3joh", "iii john"},
	"Jude":            {"jud", "jd"},
	"Revelation":      {"rev", "re", "rv", "apocalypse"},
}

var kjvOnce = sync.OnceValues(func() (*Index, error) {
	return NewIndex(kjvBooks, kjvAliases)
})

// KJV returns the shared KJV index. It is built on first use; later calls
// return the same index or the same construction error.
func KJV() (*Index, error) {
	return kjvOnce()
}

// MustKJV is like KJV but panics if the built-in tables are inconsistent.
func MustKJV() *Index {
	idx, err := KJV()
	if err != nil {
		panic(errors.Wrap(err, "canon: built-in KJV index"))
	}
	return idx
}
