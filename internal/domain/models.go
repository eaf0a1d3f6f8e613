package domain

import (
	"time"

	"github.com/hamed0406/showwatch/internal/classify"
)

type SiteID string

// Site is one ticketing page watched for a movie.
type Site struct {
	ID      SiteID         `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	URL     string         `json:"url" yaml:"url"`
	Subject string         `json:"subject" yaml:"subject"`
	Targets []string       `json:"targets" yaml:"targets"`
	Rules   classify.Rules `json:"rules" yaml:"rules"`
}

// DisplayName falls back to the ID when no name is configured.
func (s Site) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return string(s.ID)
}

// CheckResult is one fetch+classify pass over a site. Fetched is false when
// the page could not be retrieved; Reason then says why.
type CheckResult struct {
	SiteID       SiteID                 `json:"site_id"`
	URL          string                 `json:"url"`
	Fetched      bool                   `json:"fetched"`
	HTTPStatus   int                    `json:"http_status,omitempty"`
	LatencyMS    float64                `json:"latency_ms"`
	Reason       string                 `json:"reason,omitempty"`
	SubjectFound bool                   `json:"subject_found"`
	Bookable     bool                   `json:"bookable"`
	Showtimes    []string               `json:"showtimes,omitempty"`
	Matches      []classify.ScreenMatch `json:"matches,omitempty"`
	CheckedAt    time.Time              `json:"checked_at"`
}

// Apply copies a classification outcome into the record.
func (r *CheckResult) Apply(res classify.Result) {
	r.SubjectFound = res.SubjectFound
	r.Bookable = res.Bookable
	r.Showtimes = res.Showtimes
	r.Matches = res.Matches
}

// MatchesWith returns the matches currently at status s.
func (r CheckResult) MatchesWith(s classify.Status) []classify.ScreenMatch {
	var out []classify.ScreenMatch
	for _, m := range r.Matches {
		if m.Status == s {
			out = append(out, m)
		}
	}
	return out
}
