package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

type span struct{ start, end int }

// target is a configured screen name prepared for matching.
type target struct {
	raw       string
	norm      string
	brand     string
	locations []string
}

func (c *Classifier) prepare(raw string) (target, bool) {
	t := target{raw: raw, norm: Normalize(raw)}
	if t.norm == "" {
		return t, false
	}
	tokens := strings.Fields(t.norm)
	for _, tok := range tokens {
		if _, ok := c.brands[tok]; ok {
			t.brand = tok
			break
		}
	}
	if t.brand == "" {
		return t, true
	}
	for _, tok := range tokens {
		if _, ok := c.brands[tok]; ok {
			continue
		}
		if utf8.RuneCountInString(tok) >= c.rules.MinLocationLen {
			t.locations = append(t.locations, tok)
		}
	}
	return t, true
}

// exactSpans returns up to limit non-overlapping occurrences of needle.
func exactSpans(text, needle string, limit int) []span {
	var out []span
	for i := 0; i <= len(text) && len(out) < limit; {
		j := strings.Index(text[i:], needle)
		if j < 0 {
			break
		}
		s := i + j
		out = append(out, span{s, s + len(needle)})
		i = s + len(needle)
	}
	return out
}

// wordSpans is exactSpans restricted to whole words of normalized text.
func wordSpans(text, word string, limit int) []span {
	var out []span
	for i := 0; i <= len(text) && len(out) < limit; {
		j := strings.Index(text[i:], word)
		if j < 0 {
			break
		}
		s, e := i+j, i+j+len(word)
		if (s == 0 || isSep(text[s-1])) && (e == len(text) || isSep(text[e])) {
			out = append(out, span{s, e})
		}
		i = s + 1
	}
	return out
}

func isSep(b byte) bool { return b == ' ' || b == ':' }

func hasWord(text, word string) bool { return len(wordSpans(text, word, 1)) > 0 }

// proximitySpans pairs each brand mention with location mentions no more
// than BrandWindow bytes away and returns the covering spans.
func (c *Classifier) proximitySpans(text string, t target) []span {
	if t.brand == "" || len(t.locations) == 0 {
		return nil
	}
	limit := c.rules.MaxMentions
	brands := wordSpans(text, t.brand, limit)
	if len(brands) == 0 {
		return nil
	}
	var locs []span
	for _, l := range t.locations {
		locs = append(locs, wordSpans(text, l, limit)...)
	}

	var out []span
	for _, b := range brands {
		best, found := span{}, false
		for _, l := range locs {
			var gap int
			if l.start >= b.end {
				gap = l.start - b.end
			} else {
				gap = b.start - l.end
			}
			if gap < 0 || gap > c.rules.BrandWindow {
				continue
			}
			cover := span{min(b.start, l.start), max(b.end, l.end)}
			if !found || cover.end > best.end {
				best, found = cover, true
			}
		}
		if found {
			out = append(out, best)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// matchElement looks for a name-like element naming the target.
func (c *Classifier) matchElement(doc *goquery.Document, t target) (string, bool) {
	if doc == nil || c.selector == "" {
		return "", false
	}
	var name string
	doc.Find(c.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.Join(strings.Fields(s.Text()), " ")
		n := utf8.RuneCountInString(raw)
		if n <= c.rules.MinNameLen || n >= c.rules.MaxNameLen {
			return true
		}
		norm := Normalize(raw)
		if strings.Contains(norm, t.norm) || c.namesBrandLocation(norm, t) {
			name = raw
			return false
		}
		return true
	})
	return name, name != ""
}

func (c *Classifier) namesBrandLocation(norm string, t target) bool {
	if t.brand == "" || !hasWord(norm, t.brand) {
		return false
	}
	for _, l := range t.locations {
		if hasWord(norm, l) {
			return true
		}
	}
	return false
}
