// Package api implements the redirect endpoint and the ops surface:
// health, status, cache statistics, cache clear, and catalog reload.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"streamgate/internal/catalog"
	"streamgate/internal/extractor"
	"streamgate/internal/metrics"
	"streamgate/internal/rescache"
	"streamgate/internal/resolver"
)

// ReloadFunc hot-swaps one site's catalog from its persisted document.
type ReloadFunc func(site string) error

// Server is the HTTP API server.
type Server struct {
	arena   *catalog.Arena
	cache   *rescache.Cache
	metrics *metrics.Metrics
	reload  ReloadFunc
	logger  *slog.Logger
	version string
}

// Options configure a Server.
type Options struct {
	Arena   *catalog.Arena
	Cache   *rescache.Cache
	Metrics *metrics.Metrics
	Reload  ReloadFunc
	Logger  *slog.Logger
	Version string
}

// New creates the API server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		arena:   opts.Arena,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		reload:  opts.Reload,
		logger:  opts.Logger,
		version: opts.Version,
	}
}

// RegisterRoutes registers all routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Local ids contain slashes, so the id captures the path remainder.
	mux.HandleFunc("GET /stream/redirect/{id...}", s.streamRedirect)
	mux.HandleFunc("GET /healthz", s.healthz)

	mux.HandleFunc("GET /api/v1/status", s.getStatus)
	mux.HandleFunc("GET /api/v1/info/{id...}", s.getInfo)
	mux.HandleFunc("GET /api/v1/catalog/{site}/series", s.listSeries)
	mux.HandleFunc("GET /api/v1/cache/stats", s.cacheStats)
	mux.HandleFunc("POST /api/v1/cache/clear", s.cacheClear)
	mux.HandleFunc("POST /api/v1/catalog/reload/{site}", s.catalogReload)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// errStatus maps resolver failures to HTTP status plus machine-readable
// error kind. Routing and lookup failures are the caller's problem (404);
// policy and upstream failures are 502/503-class so players retry cleanly
// instead of looping on a redirect.
func errStatus(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrBadID):
		return http.StatusBadRequest, "BAD_ID"
	case errors.Is(err, catalog.ErrUnknownSite):
		return http.StatusNotFound, "UNKNOWN_SITE"
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, resolver.ErrNoEligibleStream):
		return http.StatusBadGateway, "NO_ELIGIBLE_STREAM"
	case errors.Is(err, extractor.ErrUnsupportedFormat):
		return http.StatusServiceUnavailable, "UNSUPPORTED_FORMAT"
	case errors.Is(err, extractor.ErrParseFailed):
		return http.StatusServiceUnavailable, "PARSE_ERROR"
	case errors.Is(err, extractor.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func (s *Server) streamRedirect(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseGlobalID(r.PathValue("id"))
	if err != nil {
		status, code := errStatus(err)
		writeError(w, status, code, err.Error())
		return
	}

	res, err := s.cache.GetOrResolve(r.Context(), id)
	if err != nil {
		status, code := errStatus(err)
		writeError(w, status, code, err.Error())
		return
	}

	http.Redirect(w, r, res.URL, http.StatusFound)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Status  string                       `json:"status"`
	Version string                       `json:"version"`
	Sites   map[string]catalog.SiteStats `json:"sites"`
	Cache   rescache.Stats               `json:"cache"`
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Version: s.version,
		Sites:   s.arena.Stats(),
		Cache:   s.cache.Stats(),
	})
}

type infoResponse struct {
	*catalog.EpisodeInfo
	Cached    bool       `json:"cached"`
	CachedURL string     `json:"cached_url,omitempty"`
	ExpiresAt *time.Time `json:"cache_expires_at,omitempty"`
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseGlobalID(r.PathValue("id"))
	if err != nil {
		status, code := errStatus(err)
		writeError(w, status, code, err.Error())
		return
	}
	info, err := s.arena.Describe(id)
	if err != nil {
		status, code := errStatus(err)
		writeError(w, status, code, err.Error())
		return
	}
	resp := infoResponse{EpisodeInfo: info}
	if entry, ok := s.cache.Peek(id); ok {
		resp.Cached = true
		resp.ExpiresAt = &entry.ExpiresAt
		if entry.Err == nil {
			resp.CachedURL = entry.Result.URL
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type seriesEntry struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	DisplayName string `json:"display_name"`
	Episodes    int    `json:"episodes"`
}

type seriesListResponse struct {
	Site   string        `json:"site"`
	Series []seriesEntry `json:"series"`
	Total  int           `json:"total"`
}

func (s *Server) listSeries(w http.ResponseWriter, r *http.Request) {
	site := r.PathValue("site")
	cat, ok := s.arena.Site(site)
	if !ok {
		writeError(w, http.StatusNotFound, "UNKNOWN_SITE", "no catalog loaded for site "+site)
		return
	}
	out := seriesListResponse{Site: site, Series: make([]seriesEntry, 0, len(cat.Series))}
	for _, sr := range cat.Series {
		out.Series = append(out.Series, seriesEntry{
			Key:         sr.Key,
			Title:       sr.Title,
			DisplayName: sr.DisplayName,
			Episodes:    len(sr.Episodes),
		})
	}
	out.Total = len(out.Series)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) cacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

type clearResponse struct {
	Cleared int    `json:"cleared"`
	Site    string `json:"site,omitempty"`
}

func (s *Server) cacheClear(w http.ResponseWriter, r *http.Request) {
	site := r.URL.Query().Get("site")
	if site != "" {
		if _, ok := s.arena.Site(site); !ok {
			writeError(w, http.StatusNotFound, "UNKNOWN_SITE", "no catalog loaded for site "+site)
			return
		}
	}
	n := s.cache.Clear(site)
	s.logger.Info("cache cleared", "site", site, "entries", n)
	writeJSON(w, http.StatusOK, clearResponse{Cleared: n, Site: site})
}

func (s *Server) catalogReload(w http.ResponseWriter, r *http.Request) {
	site := r.PathValue("site")
	if _, ok := s.arena.Site(site); !ok {
		writeError(w, http.StatusNotFound, "UNKNOWN_SITE", "no catalog loaded for site "+site)
		return
	}
	if s.reload == nil {
		writeError(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "reload not configured")
		return
	}
	if err := s.reload(site); err != nil {
		writeError(w, http.StatusInternalServerError, "RELOAD_FAILED", err.Error())
		return
	}
	// Cached resolutions for the old snapshot may point at ids the new
	// catalog no longer carries.
	s.cache.Clear(site)
	s.logger.Info("catalog reloaded", "site", site)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded", "site": site})
}
