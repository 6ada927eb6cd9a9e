package server

import (
	"context"
	"net"
	"net/http"
	"time"
)

// rootMessage is the banner returned by GET /.
const rootMessage = "Plugin Hub Backend Running"

// Config carries the dependencies injected into every handler. Store and
// Blobs are process-wide resources opened once at startup; tests construct
// a Config directly with fakes.
type Config struct {
	Addr     string // e.g. ":8000"
	OwnerKey string
	Store    PluginStore
	Blobs    *BlobStore
}

type Server struct {
	httpServer *http.Server
}

// New builds the route table and middleware chain.
func New(cfg Config) *Server {
	mux := http.NewServeMux()

	mux.Handle("/", rootHandler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	mux.Handle("/metrics", metricsHandler())
	mux.Handle("/test", cfg.testHandler())

	mux.Handle("/api/auth/verify", cfg.verifyHandler())
	mux.Handle("/api/plugins", cfg.listHandler())
	mux.Handle("/api/plugins/upload", cfg.uploadHandler())
	// Subtree route: /api/plugins/{id}/download
	mux.Handle("/api/plugins/", cfg.downloadHandler())

	// Wrap middleware: requestID -> logging -> cors -> security headers -> mux
	var handler http.Handler = mux
	handler = securityHeadersMiddleware(handler)
	handler = corsMiddleware(handler)
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{httpServer: s}
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// rootHandler serves the banner on "/" and a JSON 404 everywhere else the
// mux falls through to.
func rootHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": rootMessage})
	})
}
