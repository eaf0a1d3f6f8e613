package classify

import (
	"fmt"
	"strings"
)

// Status is the availability verdict for one matched screen. The set is
// closed: the classifier only ever produces the three values below.
type Status string

const (
	StatusOpen        Status = "OPEN"
	StatusOpeningSoon Status = "OPENING_SOON"
	StatusMentioned   Status = "MENTIONED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusOpeningSoon, StatusMentioned:
		return true
	}
	return false
}

// Rank orders statuses from weakest (1) to strongest (3); unknown values rank 0.
func (s Status) Rank() int {
	switch s {
	case StatusMentioned:
		return 1
	case StatusOpeningSoon:
		return 2
	case StatusOpen:
		return 3
	}
	return 0
}

// Evidence holds the signals extracted from one page for one target screen.
type Evidence struct {
	Subject     bool     `json:"subject"`
	Exact       bool     `json:"exact"`
	Proximity   bool     `json:"proximity"`
	HTML        bool     `json:"html"`
	Showtimes   []string `json:"showtimes,omitempty"`
	Strong      bool     `json:"strong"`
	Weak        bool     `json:"weak"`
	ScreenLabel bool     `json:"screen_label"`
	// Schedule is the page-wide showtime cluster, attached only when no
	// matched screen had showtimes of its own.
	Schedule []string `json:"schedule,omitempty"`
}

func (e Evidence) Matched() bool { return e.Exact || e.Proximity || e.HTML }

type ScreenMatch struct {
	Target   string   `json:"target"`
	Name     string   `json:"name"`
	Evidence Evidence `json:"evidence"`
	Status   Status   `json:"status"`
	Note     string   `json:"note"`
}

// Result is the outcome of classifying one page.
type Result struct {
	SubjectFound bool          `json:"subject_found"`
	Bookable     bool          `json:"bookable"`
	Matches      []ScreenMatch `json:"matches"`
	Showtimes    []string      `json:"showtimes"`
}

// Open returns the matches whose status is OPEN.
func (r Result) Open() []ScreenMatch {
	var out []ScreenMatch
	for _, m := range r.Matches {
		if m.Status == StatusOpen {
			out = append(out, m)
		}
	}
	return out
}

// find returns the match for a configured target, if any.
func (r Result) find(target string) (ScreenMatch, bool) {
	for _, m := range r.Matches {
		if m.Target == target {
			return m, true
		}
	}
	return ScreenMatch{}, false
}

func (r Result) Summary() string {
	parts := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		parts = append(parts, fmt.Sprintf("%s=%s", m.Target, m.Status))
	}
	return fmt.Sprintf("subject=%t bookable=%t showtimes=%d [%s]",
		r.SubjectFound, r.Bookable, len(r.Showtimes), strings.Join(parts, ", "))
}

// decide derives the status from evidence alone. Weak wording never opens a
// screen: OPEN needs a showtime near the screen or a strong call-to-action
// backed by a screen label or a page-wide schedule.
func decide(e Evidence) (Status, string) {
	switch {
	case !e.Subject:
		return StatusMentioned, "screen listed but subject not on page"
	case len(e.Showtimes) > 0:
		return StatusOpen, "showtimes near screen: " + strings.Join(e.Showtimes, ", ")
	case e.Strong && e.ScreenLabel:
		return StatusOpen, "booking call-to-action with screen label"
	case e.Strong && len(e.Schedule) > 0:
		return StatusOpen, "booking call-to-action with page schedule: " + strings.Join(e.Schedule, ", ")
	case e.Strong:
		return StatusOpeningSoon, "booking call-to-action without showtimes"
	case e.Weak:
		return StatusOpeningSoon, "generic booking wording only"
	default:
		return StatusMentioned, "no booking evidence"
	}
}
