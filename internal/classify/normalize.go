package classify

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// "6:45PMScreen" -> "6:45PM Screen"
	timeBeforeUpper = regexp.MustCompile(`(\d{1,2}:\d{2}(?:\s*(?i:[ap]m))?)(\p{Lu})`)
	// "MallScreen" -> "Mall Screen"
	lowerBeforeUpper = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)
	// "Mall6:45" -> "Mall 6:45"
	letterBeforeTime = regexp.MustCompile(`(\pL)(\d{1,2}:\d{2})`)

	// applied after lower-casing
	meridiemGlued = regexp.MustCompile(`(\d:\d{2})(am|pm)\b`)
	labelGlued    = regexp.MustCompile(`\b(screen|audi)(\d{1,2})\b`)
)

// Normalize prepares scraped text for substring search. Text concatenated
// from adjacent inline elements gets separating spaces back, then it is
// diacritic-folded, lower-cased, stripped of punctuation other than ':' and
// whitespace-collapsed. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = stripMarks(s)
	s = timeBeforeUpper.ReplaceAllString(s, "$1 $2")
	s = lowerBeforeUpper.ReplaceAllString(s, "$1 $2")
	s = letterBeforeTime.ReplaceAllString(s, "$1 $2")
	s = cases.Lower(language.Und).String(s)

	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r):
			// lower-casing can reintroduce combining marks
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == ':':
			if pending && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	out := meridiemGlued.ReplaceAllString(b.String(), "$1 $2")
	return labelGlued.ReplaceAllString(out, "$1 $2")
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
