package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/synthetic-met-data/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ManifestSource reports the manifest of the most recent completed run.
type ManifestSource interface {
	LastManifest() (domain.Manifest, bool)
}

// Server exposes health, readiness, metrics and the generated artifacts.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /api/manifest and a static file route /data/ rooted at dataDir.
func NewServer(addr, dataDir string, ready sharedobs.ReadinessChecker, manifests ManifestSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/manifest", handleManifest(manifests))
	mux.Handle("GET /data/", http.StripPrefix("/data/", artifactHandler(http.Dir(dataDir))))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleManifest(src ManifestSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		m, ok := src.LastManifest()
		if !ok {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no artifact produced yet"})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, m)
	}
}

// artifactHandler serves files from root. The gzip payload is sent as-is with
// a gzip Content-Encoding so browsers inflate it transparently.
func artifactHandler(root http.FileSystem) http.Handler {
	files := http.FileServer(root)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if r.URL.Path == "meteorological_data.json.gz" && r.URL.Query().Has("inflate") {
			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Set("Content-Type", "application/json")
		}
		files.ServeHTTP(w, r)
	})
}
