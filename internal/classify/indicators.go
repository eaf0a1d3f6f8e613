package classify

import (
	"regexp"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// phraseSet scans normalized text for any of a fixed list of phrases in one
// pass. Phrases only match on word boundaries. The underlying matcher keeps
// per-scan state, so instances are pooled rather than shared.
type phraseSet struct {
	phrases []string
	pool    sync.Pool
}

func newPhraseSet(list []string) *phraseSet {
	p := &phraseSet{}
	seen := make(map[string]struct{})
	for _, raw := range list {
		n := Normalize(raw)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		p.phrases = append(p.phrases, " "+n+" ")
	}
	p.pool.New = func() any {
		return ahocorasick.NewStringMatcher(p.phrases)
	}
	return p
}

// Contains reports whether any phrase occurs in one of the given texts.
func (p *phraseSet) Contains(texts ...string) bool {
	if len(p.phrases) == 0 {
		return false
	}
	m := p.pool.Get().(*ahocorasick.Matcher)
	defer p.pool.Put(m)
	for _, t := range texts {
		if t == "" {
			continue
		}
		if len(m.Match([]byte(" "+t+" "))) > 0 {
			return true
		}
	}
	return false
}

// Hits returns the phrases found across texts, trimmed, in dictionary order.
func (p *phraseSet) Hits(texts ...string) []string {
	if len(p.phrases) == 0 {
		return nil
	}
	m := p.pool.Get().(*ahocorasick.Matcher)
	defer p.pool.Put(m)
	found := make(map[int]struct{})
	for _, t := range texts {
		for _, i := range m.Match([]byte(" " + t + " ")) {
			found[i] = struct{}{}
		}
	}
	var out []string
	for i, ph := range p.phrases {
		if _, ok := found[i]; ok {
			out = append(out, strings.TrimSpace(ph))
		}
	}
	return out
}

// screenLabelPattern matches "screen 3", "audi 12" and the like for the
// configured label words.
func screenLabelPattern(labels []string) *regexp.Regexp {
	var words []string
	for _, l := range labels {
		if n := Normalize(l); n != "" {
			words = append(words, regexp.QuoteMeta(n))
		}
	}
	if len(words) == 0 {
		return nil
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(words, "|") + `)\s*\d{1,2}\b`)
}
