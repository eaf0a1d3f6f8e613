package domain

import (
	"testing"
	"time"

	"github.com/hamed0406/showwatch/internal/classify"
)

func TestNewSiteStatus_NeverChecked(t *testing.T) {
	s := Site{ID: "district", URL: "https://example.com/coolie"}
	got := NewSiteStatus(s, nil)

	if got.Checked || got.HTTPStatus != nil || got.CheckedAt != nil {
		t.Fatalf("unexpected status for unchecked site: %+v", got)
	}
	if got.Name != "district" {
		t.Fatalf("expected ID as display name, got %q", got.Name)
	}
	if got.Showtimes == nil || got.Matches == nil {
		t.Fatalf("expected empty, non-nil slices")
	}
}

func TestNewSiteStatus_FromResult(t *testing.T) {
	s := Site{ID: "district", Name: "District", URL: "https://example.com/coolie"}
	at := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	r := &CheckResult{
		SiteID:     s.ID,
		Fetched:    true,
		HTTPStatus: 200,
		LatencyMS:  42,
		Bookable:   true,
		Showtimes:  []string{"6:45 pm"},
		Matches: []classify.ScreenMatch{
			{Target: "PVR Centro Mall", Status: classify.StatusOpen},
			{Target: "INOX Forum", Status: classify.StatusMentioned},
		},
		CheckedAt: at,
	}
	got := NewSiteStatus(s, r)

	if !got.Checked || !got.Fetched || !got.Bookable {
		t.Fatalf("flags not copied: %+v", got)
	}
	if got.HTTPStatus == nil || *got.HTTPStatus != 200 {
		t.Fatalf("http status = %v", got.HTTPStatus)
	}
	if got.CheckedAt == nil || !got.CheckedAt.Equal(at) {
		t.Fatalf("checked_at = %v", got.CheckedAt)
	}
	if open := r.MatchesWith(classify.StatusOpen); len(open) != 1 || open[0].Target != "PVR Centro Mall" {
		t.Fatalf("MatchesWith(OPEN) = %+v", open)
	}
}

func TestCheckResult_Apply(t *testing.T) {
	var r CheckResult
	r.Apply(classify.Result{SubjectFound: true, Bookable: true, Showtimes: []string{"9:30 pm"}})
	if !r.SubjectFound || !r.Bookable || len(r.Showtimes) != 1 {
		t.Fatalf("apply: %+v", r)
	}
}
