package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/hamed0406/showwatch/internal/classify"
	"github.com/hamed0406/showwatch/internal/domain"
)

func TestObserveCheck(t *testing.T) {
	m := New()
	m.ObserveCheck(domain.CheckResult{
		SiteID:    "district",
		Fetched:   true,
		Bookable:  true,
		LatencyMS: 120,
		Matches:   []classify.ScreenMatch{{Target: "PVR Centro Mall", Status: classify.StatusOpen}},
	})
	m.ObserveCheck(domain.CheckResult{SiteID: "district", HTTPStatus: 503})

	if got := testutil.ToFloat64(m.ChecksTotal.WithLabelValues("district", OutcomeBookable)); got != 1 {
		t.Fatalf("bookable checks = %v", got)
	}
	if got := testutil.ToFloat64(m.ChecksTotal.WithLabelValues("district", OutcomeHTTPError)); got != 1 {
		t.Fatalf("http error checks = %v", got)
	}
	if got := testutil.ToFloat64(m.SiteBookable.WithLabelValues("district")); got != 1 {
		t.Fatalf("site_bookable = %v", got)
	}
	if got := testutil.ToFloat64(m.ScreenStatus.WithLabelValues("district", "PVR Centro Mall")); got != 3 {
		t.Fatalf("screen_status = %v", got)
	}
}

func TestObserveNotification(t *testing.T) {
	m := New()
	m.ObserveNotification(nil)
	m.ObserveNotification(errors.New("smtp down"))
	if got := testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed = %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveNotification(nil)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "showwatch_notifications_total") {
		t.Fatalf("metrics output missing counter:\n%s", rr.Body.String())
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveCheck(domain.CheckResult{SiteID: "x"})
	m.ObserveNotification(nil)
}
