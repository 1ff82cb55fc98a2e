package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"agendacal/internal/agenda"
	"agendacal/internal/clock"
	"agendacal/internal/config"
	"agendacal/internal/datekey"
	appLog "agendacal/internal/log"
	"agendacal/internal/query"
	"agendacal/internal/view"
)

const (
	// UserHeader carries the caller's user ID; without it DefaultUser applies.
	UserHeader      = "X-User-ID"
	requestIDHeader = "X-Request-ID"
	viewCacheSize   = 256
)

// Refresher triggers an out-of-band feed refresh.
type Refresher interface {
	RunOnce(ctx context.Context) error
}

// Deps are the collaborators a Server serves from. Refresher may be nil.
type Deps struct {
	Queries   *query.Handler
	Views     *view.Builder
	Refresher Refresher
	Clock     clock.Clock
}

// Server exposes the agenda list and view APIs.
type Server struct {
	cfg  *config.Config
	deps Deps
	mux  *http.ServeMux
	loc  *time.Location

	// viewCache holds encoded /api/agenda/view responses keyed by user, mode
	// and anchor day. Nil when caching is disabled.
	viewCache *expirable.LRU[string, []byte]
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mux:  http.NewServeMux(),
		loc:  cfg.Location(),
	}
	if ttl := cfg.CacheTTL(); ttl > 0 {
		s.viewCache = expirable.NewLRU[string, []byte](viewCacheSize, nil, ttl)
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return requestLogger(h)
}

// Run serves on the configured listen address until ctx is done, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// InvalidateCache drops every cached view response.
func (s *Server) InvalidateCache() {
	if s.viewCache != nil {
		s.viewCache.Purge()
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/agenda", s.handleAgenda)
	s.mux.HandleFunc("GET /api/agenda/view", s.handleView)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials mean disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="agendacal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger tags every request with an ID and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		appLog.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) userID(r *http.Request) string {
	if u := r.Header.Get(UserHeader); u != "" {
		return u
	}
	return s.cfg.DefaultUser
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleAgenda serves the paginated list.
//
// GET /api/agenda?start=2024-06-01&end=2024-06-30&q=gym&mode=all&page=1&limit=50
func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := parseIntParam(q.Get("page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "page: "+err.Error())
		return
	}
	limit, err := parseIntParam(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit: "+err.Error())
		return
	}

	mode := query.Mode(q.Get("mode"))
	if mode == "" {
		mode = query.ModeAll
	}

	res, err := s.deps.Queries.List(r.Context(), query.Params{
		UserID:    s.userID(r),
		StartDate: q.Get("start"),
		EndDate:   q.Get("end"),
		Query:     q.Get("q"),
		Mode:      mode,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		s.writeFailure(w, "api agenda", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleView serves a day, week or month view.
//
// GET /api/agenda/view?mode=week&date=2024-06-05
//   - mode: day | week (default) | month
//   - date: anchor day, default today in the configured timezone
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	user := s.userID(r)
	q := r.URL.Query()

	rawMode := q.Get("mode")
	if rawMode == "" {
		rawMode = string(datekey.ModeWeek)
	}
	mode, err := datekey.ParseMode(rawMode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	anchor := datekey.Today(s.deps.Clock.Now(), s.loc)
	if raw := q.Get("date"); raw != "" {
		if anchor, err = datekey.Parse(raw); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	// Keyed by the resolved anchor so a dateless request rolls over at midnight.
	cacheKey := user + "\x00" + string(mode) + "\x00" + string(anchor)
	if s.viewCache != nil {
		if body, ok := s.viewCache.Get(cacheKey); ok {
			writeRawJSON(w, http.StatusOK, body)
			return
		}
	}

	recs, err := s.deps.Queries.Window(r.Context(), user, s.deps.Views.Range(mode, anchor))
	if err != nil {
		s.writeFailure(w, "api view", err)
		return
	}
	v, err := s.deps.Views.Build(mode, anchor, recs)
	if err != nil {
		s.writeFailure(w, "api view", err)
		return
	}

	body, err := encodeJSON(v)
	if err != nil {
		s.writeFailure(w, "api view", err)
		return
	}
	if s.viewCache != nil {
		s.viewCache.Add(cacheKey, body)
	}
	writeRawJSON(w, http.StatusOK, body)
}

// handleRefresh runs a feed refresh synchronously and drops cached views.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.deps.Refresher == nil {
		writeError(w, http.StatusNotFound, "refresh is not configured")
		return
	}
	err := s.deps.Refresher.RunOnce(r.Context())
	s.InvalidateCache()
	if err != nil {
		appLog.Error("api refresh: feeds failed", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"status": "partial", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeFailure maps caller mistakes to 400 and everything else to 500.
func (s *Server) writeFailure(w http.ResponseWriter, op string, err error) {
	if isBadRequest(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appLog.Error(op+" failed", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func isBadRequest(err error) bool {
	return errors.Is(err, query.ErrInvalidParams) ||
		errors.Is(err, agenda.ErrInvalidRange) ||
		errors.Is(err, datekey.ErrInvalid)
}

// parseIntParam returns 0 for an empty value so the query defaults apply.
func parseIntParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("not an integer")
	}
	return n, nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := encodeJSON(v)
	if err != nil {
		appLog.Error("failed to encode JSON response", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeRawJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
