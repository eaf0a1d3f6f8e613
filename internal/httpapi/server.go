package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/showwatch/internal/classify"
	"github.com/hamed0406/showwatch/internal/domain"
	apimw "github.com/hamed0406/showwatch/internal/httpapi/middleware"
	"github.com/hamed0406/showwatch/internal/metrics"
	"github.com/hamed0406/showwatch/internal/repo"
)

// maxClassifyBody bounds POST /api/classify payloads.
const maxClassifyBody = 8 << 20

// SiteChecker runs one on-demand check; *scheduler.Watcher satisfies it.
type SiteChecker interface {
	CheckSite(ctx context.Context, s domain.Site) (*domain.CheckResult, error)
}

type Server struct {
	Logger  *zap.Logger
	Sites   repo.SiteStore
	Results repo.ResultStore
	Checker SiteChecker
	Metrics *metrics.Metrics

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a reverse proxy that sets those headers.
	TrustProxy bool
}

func NewServer(l *zap.Logger, ss repo.SiteStore, rs repo.ResultStore, c SiteChecker, m *metrics.Metrics) *Server {
	return &Server{Logger: l, Sites: ss, Results: rs, Checker: c, Metrics: m}
}

// Router wires routes. Public reads accept any key; checks and ad-hoc
// classification need an admin key. Rate limits are requests per minute.
func (s *Server) Router(keys apimw.Keys, origins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if s.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(s.accessLog)

	if len(origins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(pubRPM, pubBurst))
			r.Use(apimw.RequireAny(keys))
			r.Get("/sites", s.handleListSites)
			r.Get("/sites/{id}", s.handleSiteStatus)
			r.Get("/results/latest", s.handleLatest)
		})
		r.Group(func(r chi.Router) {
			r.Use(apimw.RateLimit(admRPM, admBurst))
			r.Use(apimw.RequireAdmin(keys))
			r.Post("/sites/{id}/check", s.handleCheckSite)
			r.Post("/classify", s.handleClassify)
		})
	})

	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.Sites.List(r.Context())
	if err != nil {
		s.Logger.Error("list_sites_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	if sites == nil {
		sites = []domain.Site{}
	}
	writeJSON(w, http.StatusOK, sites)
}

// handleLatest joins every configured site with its most recent result;
// sites never checked are listed with checked=false.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	sites, err := s.Sites.List(r.Context())
	if err != nil {
		s.Logger.Error("list_sites_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	latest, err := s.Results.Latest(r.Context())
	if err != nil {
		s.Logger.Error("latest_results_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "latest error")
		return
	}
	bySite := make(map[domain.SiteID]*domain.CheckResult, len(latest))
	for i := range latest {
		bySite[latest[i].SiteID] = &latest[i]
	}
	out := make([]domain.SiteStatus, 0, len(sites))
	for _, site := range sites {
		out = append(out, domain.NewSiteStatus(site, bySite[site.ID]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) findSite(w http.ResponseWriter, r *http.Request) (*domain.Site, bool) {
	id := domain.SiteID(chi.URLParam(r, "id"))
	site, err := s.Sites.Find(r.Context(), id)
	switch {
	case errors.Is(err, repo.ErrSiteNotFound):
		writeError(w, http.StatusNotFound, "site not found")
		return nil, false
	case err != nil:
		s.Logger.Error("find_site_error", zap.String("site_id", string(id)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup error")
		return nil, false
	}
	return site, true
}

func (s *Server) handleSiteStatus(w http.ResponseWriter, r *http.Request) {
	site, ok := s.findSite(w, r)
	if !ok {
		return
	}
	last, err := s.Results.LastBySite(r.Context(), site.ID)
	if err != nil {
		s.Logger.Error("last_result_error", zap.String("site_id", string(site.ID)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup error")
		return
	}
	writeJSON(w, http.StatusOK, domain.NewSiteStatus(*site, last))
}

func (s *Server) handleCheckSite(w http.ResponseWriter, r *http.Request) {
	site, ok := s.findSite(w, r)
	if !ok {
		return
	}
	if s.Checker == nil {
		writeError(w, http.StatusServiceUnavailable, "checker unavailable")
		return
	}
	cr, err := s.Checker.CheckSite(r.Context(), *site)
	if err != nil {
		// the check ran; only storing it failed
		s.Logger.Warn("check_store_error", zap.String("site_id", string(site.ID)), zap.Error(err))
	}
	s.Logger.Info("manual_check",
		zap.String("site_id", string(site.ID)),
		zap.Bool("bookable", cr != nil && cr.Bookable),
	)
	writeJSON(w, http.StatusOK, domain.NewSiteStatus(*site, cr))
}

type classifyPayload struct {
	HTML    string          `json:"html"`
	Text    string          `json:"text"`
	Subject string          `json:"subject"`
	Targets []string        `json:"targets"`
	Rules   *classify.Rules `json:"rules,omitempty"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var p classifyPayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClassifyBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	if strings.TrimSpace(p.HTML) == "" && strings.TrimSpace(p.Text) == "" {
		writeError(w, http.StatusBadRequest, "html or text required")
		return
	}
	if len(p.Targets) == 0 {
		writeError(w, http.StatusBadRequest, "targets required")
		return
	}

	page := classify.TextPage(p.Text)
	if p.HTML != "" {
		parsed, err := classify.ParseHTMLString(p.HTML)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unparseable html")
			return
		}
		page = parsed
	}

	var rules classify.Rules
	if p.Rules != nil {
		rules = *p.Rules
	}
	res := classify.New(rules).Classify(page, p.Targets, p.Subject)
	if res.Matches == nil {
		res.Matches = []classify.ScreenMatch{}
	}
	if res.Showtimes == nil {
		res.Showtimes = []string{}
	}
	writeJSON(w, http.StatusOK, res)
}
