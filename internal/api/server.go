// Package api serves the rendered weathermap over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"weathermap/internal/cache"
)

// Server serves the latest cached render.
type Server struct {
	cache    *cache.Cache
	interval time.Duration
	mux      *http.ServeMux
	server   *http.Server
}

// NewServer creates the HTTP server. The refresh interval is embedded in
// the index page so browsers re-fetch roughly when a new render lands.
func NewServer(addr string, c *cache.Cache, interval time.Duration) *Server {
	srv := &Server{
		cache:    c,
		interval: interval,
		mux:      http.NewServeMux(),
	}

	srv.registerRoutes()

	srv.server = &http.Server{
		Addr:         addr,
		Handler:      SecurityHeadersMiddleware(RecoveryMiddleware(LoggingMiddleware(srv.mux))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return srv
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("HTTP server starting", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Handler exposes the route stack for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /map.png", s.handleMapPNG)
	s.mux.HandleFunc("GET /api/links", s.handleLinks)
	s.mux.HandleFunc("GET /api/problems", s.handleProblems)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
}

// writeJSON marshals v into a buffer first so marshalling errors can be
// returned as a proper 500.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding JSON response", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		slog.Debug("writing JSON response", "path", r.URL.Path, "error", err)
	}
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
<title>Network Weathermap</title>
<meta http-equiv="refresh" content="%d">
<style>body { margin: 0; background: #fff; text-align: center; } img { max-width: 100%%; }</style>
</head>
<body>
<img src="/map.png" alt="network weathermap">
</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	refresh := int(s.interval.Seconds())
	if refresh < 1 {
		refresh = 60
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, indexPage, refresh)
}

func (s *Server) handleMapPNG(w http.ResponseWriter, r *http.Request) {
	snap := s.cache.Snapshot()
	if snap.PNG == nil {
		http.Error(w, "no render yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(snap.PNG); err != nil {
		slog.Debug("writing map image", "error", err)
	}
}

// linkEntry is one resolved link in the /api/links response.
type linkEntry struct {
	Dev1     string  `json:"dev1"`
	Port1    string  `json:"port1"`
	Dev2     string  `json:"dev2"`
	Port2    string  `json:"port2"`
	Out1Mbps float64 `json:"out1_mbps"`
	Out2Mbps float64 `json:"out2_mbps"`
}

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	snap := s.cache.Snapshot()
	entries := make([]linkEntry, 0, len(snap.Loads))
	for _, l := range snap.Loads {
		entries = append(entries, linkEntry{
			Dev1:     l.Link.Dev1,
			Port1:    l.Link.Port1,
			Dev2:     l.Link.Dev2,
			Port2:    l.Link.Port2,
			Out1Mbps: l.Out1Mbps,
			Out2Mbps: l.Out2Mbps,
		})
	}
	writeJSON(w, r, map[string]any{
		"rendered_at": snap.LastRender.Unix(),
		"links":       entries,
	})
}

func (s *Server) handleProblems(w http.ResponseWriter, r *http.Request) {
	snap := s.cache.Snapshot()
	type problemEntry struct {
		Entity string `json:"entity"`
		Reason string `json:"reason"`
	}
	entries := make([]problemEntry, 0, len(snap.Problems))
	for _, p := range snap.Problems {
		entries = append(entries, problemEntry{Entity: p.Entity, Reason: p.Reason})
	}
	writeJSON(w, r, map[string]any{"problems": entries})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snap := s.cache.Snapshot()

	status := "ok"
	if snap.PNG == nil {
		status = "no_data"
	}

	resp := map[string]any{
		"status":    status,
		"timestamp": time.Now().Unix(),
	}
	if !snap.LastRender.IsZero() {
		resp["last_render"] = fmt.Sprintf("%ds ago", int(time.Since(snap.LastRender).Seconds()))
	}
	writeJSON(w, r, resp)
}
