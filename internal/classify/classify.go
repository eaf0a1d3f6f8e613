// Package classify decides, from a scraped ticketing page, whether a movie
// can be booked at a set of preferred screens.
//
// Classification is pure: no I/O, no shared mutable state, and it never
// fails. Garbage in yields an empty or MENTIONED-only Result.
package classify

import (
	"regexp"
	"strings"
)

type Classifier struct {
	rules       Rules
	brands      map[string]struct{}
	strong      *phraseSet
	weak        *phraseSet
	screenLabel *regexp.Regexp
	selector    string
}

// New builds a Classifier; zero fields in r take their DefaultRules value.
func New(r Rules) *Classifier {
	r = r.Merge(DefaultRules())
	c := &Classifier{
		rules:       r,
		brands:      make(map[string]struct{}),
		strong:      newPhraseSet(r.StrongIndicators),
		weak:        newPhraseSet(r.WeakIndicators),
		screenLabel: screenLabelPattern(r.ScreenLabels),
	}
	for _, b := range r.Brands {
		for _, tok := range strings.Fields(Normalize(b)) {
			c.brands[tok] = struct{}{}
		}
	}
	var sel []string
	for _, s := range r.NameSelectors {
		if s = strings.TrimSpace(s); s != "" {
			sel = append(sel, s)
		}
	}
	c.selector = strings.Join(sel, ", ")
	return c
}

var defaultClassifier = New(DefaultRules())

// Classify runs the default classifier.
func Classify(page Page, targets []string, subject string) Result {
	return defaultClassifier.Classify(page, targets, subject)
}

// Classify reports which targets the page mentions and how bookable each one
// looks. Matches keep target order; targets the page never names are absent.
func (c *Classifier) Classify(page Page, targets []string, subject string) Result {
	text := Normalize(page.Text)
	subj := Normalize(subject)
	res := Result{
		SubjectFound: subj != "" && strings.Contains(text, subj),
		Matches:      []ScreenMatch{},
		Showtimes:    []string{},
	}

	seen := make(map[string]struct{}, len(targets))
	anyWindowTimes := false
	for _, raw := range targets {
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		t, ok := c.prepare(raw)
		if !ok {
			continue
		}
		m, ok := c.matchOne(page, text, t)
		if !ok {
			continue
		}
		m.Evidence.Subject = res.SubjectFound
		if len(m.Evidence.Showtimes) > 0 {
			anyWindowTimes = true
		}
		res.Matches = append(res.Matches, m)
	}

	if res.SubjectFound && len(res.Matches) > 0 && !anyWindowTimes {
		if sched := cluster(text, c.rules.ClusterMin, c.rules.ClusterGap, c.rules.MaxShowtimes); len(sched) > 0 {
			for i := range res.Matches {
				res.Matches[i].Evidence.Schedule = sched
			}
		}
	}

	seenTimes := make(map[string]struct{})
	for i := range res.Matches {
		m := &res.Matches[i]
		m.Status, m.Note = decide(m.Evidence)
		if m.Status != StatusOpen {
			continue
		}
		res.Bookable = true
		for _, st := range m.Evidence.Showtimes {
			res.Showtimes = appendUnique(res.Showtimes, seenTimes, st, c.rules.MaxShowtimes)
		}
		for _, st := range m.Evidence.Schedule {
			res.Showtimes = appendUnique(res.Showtimes, seenTimes, st, c.rules.MaxShowtimes)
		}
	}
	return res
}

// matchOne gathers the evidence for one target. ok is false when none of
// the matching strategies succeeds.
func (c *Classifier) matchOne(page Page, text string, t target) (ScreenMatch, bool) {
	m := ScreenMatch{Target: t.raw}
	var anchors []span

	if sp := exactSpans(text, t.norm, c.rules.MaxMentions); len(sp) > 0 {
		m.Evidence.Exact = true
		m.Name = t.raw
		anchors = append(anchors, sp...)
	}
	if sp := c.proximitySpans(text, t); len(sp) > 0 {
		m.Evidence.Proximity = true
		if m.Name == "" {
			m.Name = text[sp[0].start:sp[0].end]
		}
		anchors = append(anchors, sp...)
	}
	if name, ok := c.matchElement(page.DOM, t); ok {
		m.Evidence.HTML = true
		if m.Name == "" {
			m.Name = name
		}
		if len(anchors) == 0 {
			anchors = exactSpans(text, Normalize(name), c.rules.MaxMentions)
		}
	}
	if !m.Evidence.Matched() {
		return m, false
	}

	scope := make([]string, 0, len(anchors))
	seen := make(map[string]struct{})
	for _, a := range anchors {
		w := window(text, a.start, a.end, c.rules.ProximityBefore, c.rules.ProximityAfter)
		scope = append(scope, w)
		for _, h := range findTimes(w) {
			m.Evidence.Showtimes = appendUnique(m.Evidence.Showtimes, seen, h.value, c.rules.MaxShowtimes)
		}
	}
	if len(scope) == 0 {
		scope = []string{text}
	}
	m.Evidence.Strong = c.strong.Contains(scope...)
	m.Evidence.Weak = c.weak.Contains(scope...)
	if c.screenLabel != nil {
		for _, s := range scope {
			if c.screenLabel.MatchString(s) {
				m.Evidence.ScreenLabel = true
				break
			}
		}
	}
	return m, true
}
