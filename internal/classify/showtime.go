package classify

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var showtimePattern = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(am|pm)\b`)

type timeHit struct {
	pos   int
	value string
}

// CanonicalShowtime parses a single time literal such as "06:45PM" and
// returns its canonical form ("6:45 pm"). ok is false when the literal does
// not parse or names an impossible hour or minute.
func CanonicalShowtime(lit string) (string, bool) {
	m := showtimePattern.FindStringSubmatch(strings.TrimSpace(lit))
	if m == nil {
		return "", false
	}
	return canonical(m[1], m[2], m[3])
}

func canonical(hh, mm, meridiem string) (string, bool) {
	h, err := strconv.Atoi(hh)
	if err != nil || h > 23 {
		return "", false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m > 59 {
		return "", false
	}
	return strconv.Itoa(h) + ":" + mm + " " + strings.ToLower(meridiem), true
}

func findTimes(s string) []timeHit {
	idx := showtimePattern.FindAllStringSubmatchIndex(s, -1)
	hits := make([]timeHit, 0, len(idx))
	for _, m := range idx {
		v, ok := canonical(s[m[2]:m[3]], s[m[4]:m[5]], s[m[6]:m[7]])
		if !ok {
			continue
		}
		hits = append(hits, timeHit{pos: m[0], value: v})
	}
	return hits
}

// cluster finds runs of at least minRun time literals whose consecutive
// starts are less than gap bytes apart and returns their values.
func cluster(s string, minRun, gap, max int) []string {
	hits := findTimes(s)
	var out []string
	seen := make(map[string]struct{})
	flush := func(run []timeHit) {
		if len(run) < minRun {
			return
		}
		for _, h := range run {
			out = appendUnique(out, seen, h.value, max)
		}
	}
	start := 0
	for i := 1; i <= len(hits); i++ {
		if i == len(hits) || hits[i].pos-hits[i-1].pos >= gap {
			flush(hits[start:i])
			start = i
		}
	}
	return out
}

func appendUnique(out []string, seen map[string]struct{}, v string, max int) []string {
	if _, dup := seen[v]; dup {
		return out
	}
	if max > 0 && len(out) >= max {
		return out
	}
	seen[v] = struct{}{}
	return append(out, v)
}

// window returns s[start-before : end+after] clamped to the string and
// widened to rune boundaries.
func window(s string, start, end, before, after int) string {
	lo := start - before
	if lo < 0 {
		lo = 0
	}
	for lo > 0 && !utf8.RuneStart(s[lo]) {
		lo--
	}
	hi := end + after
	if hi > len(s) {
		hi = len(s)
	}
	for hi < len(s) && !utf8.RuneStart(s[hi]) {
		hi++
	}
	return s[lo:hi]
}
