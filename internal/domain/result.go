package domain

import (
	"time"

	"github.com/hamed0406/showwatch/internal/classify"
)

// SiteStatus is the API view of a site joined with its latest check.
type SiteStatus struct {
	SiteID       SiteID                 `json:"site_id"`
	Name         string                 `json:"name"`
	URL          string                 `json:"url"`
	Checked      bool                   `json:"checked"`
	Fetched      bool                   `json:"fetched"`
	HTTPStatus   *int                   `json:"http_status"` // nil when never fetched
	LatencyMS    *float64               `json:"latency_ms"`
	Reason       string                 `json:"reason"`
	SubjectFound bool                   `json:"subject_found"`
	Bookable     bool                   `json:"bookable"`
	Showtimes    []string               `json:"showtimes"`
	Matches      []classify.ScreenMatch `json:"matches"`
	CheckedAt    *time.Time             `json:"checked_at"`
}

// NewSiteStatus builds the view; r may be nil for a site not yet checked.
func NewSiteStatus(s Site, r *CheckResult) SiteStatus {
	out := SiteStatus{
		SiteID:    s.ID,
		Name:      s.DisplayName(),
		URL:       s.URL,
		Showtimes: []string{},
		Matches:   []classify.ScreenMatch{},
	}
	if r == nil {
		return out
	}
	out.Checked = true
	out.Fetched = r.Fetched
	if r.HTTPStatus != 0 {
		v := r.HTTPStatus
		out.HTTPStatus = &v
	}
	if r.LatencyMS != 0 {
		v := r.LatencyMS
		out.LatencyMS = &v
	}
	out.Reason = r.Reason
	out.SubjectFound = r.SubjectFound
	out.Bookable = r.Bookable
	if r.Showtimes != nil {
		out.Showtimes = r.Showtimes
	}
	if r.Matches != nil {
		out.Matches = r.Matches
	}
	at := r.CheckedAt
	out.CheckedAt = &at
	return out
}
