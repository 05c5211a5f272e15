package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"orbit/internal/config"
	"orbit/internal/engine"
	appLog "orbit/internal/log"
	"orbit/internal/store"
)

const maxBodyBytes = 4 << 20 // status images travel as data URLs

// Options configure a Server.
type Options struct {
	Location    *time.Location
	InsightDays int
	// BasicAuth, if set with a username and password, protects every route
	// except /health.
	BasicAuth *config.BasicAuthConfig
	// Now overrides the clock; tests pin it.
	Now func() time.Time
}

// Server exposes the dashboard state and its derived views over HTTP.
type Server struct {
	store *store.Store
	opts  Options
	mux   *http.ServeMux
}

// NewServer constructs a Server backed by st.
func NewServer(st *store.Store, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.InsightDays <= 0 {
		opts.InsightDays = engine.DefaultInsightDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		store: st,
		opts:  opts,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler, with basic auth applied when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Run serves on listen until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, listen string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+listen, "basic_auth", s.basicAuthEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func (s *Server) basicAuthEnabled() bool {
	a := s.opts.BasicAuth
	// Empty username or password counts as disabled.
	return a != nil && a.Username != "" && a.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.opts.BasicAuth.Username
	password := s.opts.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="orbit", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	s.mux.HandleFunc("GET /api/week", s.handleWeek)

	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleUpsertEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)
	s.mux.HandleFunc("POST /api/events/{id}/exclude", s.handleExcludeOccurrence)

	s.mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	s.mux.HandleFunc("POST /api/tasks", s.handleUpsertTask)
	s.mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	s.mux.HandleFunc("POST /api/tasks/{id}/toggle", s.handleToggleTask)

	s.mux.HandleFunc("GET /api/statuses", s.handleListStatuses)
	s.mux.HandleFunc("POST /api/statuses", s.handleUpsertStatus)
	s.mux.HandleFunc("DELETE /api/statuses/{id}", s.handleDeleteStatus)
	s.mux.HandleFunc("POST /api/statuses/{id}/move", s.handleMoveStatus)
	s.mux.HandleFunc("PUT /api/statuses/current", s.handleSetCurrentStatus)

	s.mux.HandleFunc("PUT /api/notes", s.handleSetNotes)
	s.mux.HandleFunc("PUT /api/view", s.handleSetView)

	s.mux.HandleFunc("GET /api/presets", s.handleListPresets)
	s.mux.HandleFunc("POST /api/presets", s.handleSavePreset)
	s.mux.HandleFunc("POST /api/presets/{name}/load", s.handleLoadPreset)
	s.mux.HandleFunc("DELETE /api/presets/{name}", s.handleDeletePreset)

	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendarICS)
	s.mux.HandleFunc("GET /week", s.handleWeekPage)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// decodeJSON reads a size-limited JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: request body: %v", store.ErrInvalid, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeStoreError maps store errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("request failed", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
