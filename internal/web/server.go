// Package web serves the device web interface.
package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// AdminUser and AdminPasswordHash (bcrypt) protect POST /upload.
	// An empty hash leaves it open.
	AdminUser         string
	AdminPasswordHash string

	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// Server is the device HTTP server.
type Server struct {
	httpServer *http.Server
	handlers   *Handlers
}

// NewServer creates a new server routing to handlers.
func NewServer(cfg ServerConfig, handlers *Handlers) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", handlers.FilesHandler)
	r.Get("/upload", handlers.UploadFormHandler)

	if cfg.AdminPasswordHash != "" {
		r.With(BasicAuth(cfg.AdminUser, cfg.AdminPasswordHash)).Post("/upload", handlers.UploadSubmitHandler)
	} else {
		log.Println("Warning: no admin password configured, configuration changes are unauthenticated")
		r.Post("/upload", handlers.UploadSubmitHandler)
	}

	// Health check (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	static := staticHandler()
	r.Method(http.MethodGet, "/favicon.ico", static)
	r.Method(http.MethodGet, "/robots.txt", static)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.NotFound(handlers.NotFoundHandler)

	readTimeout := orDefault(cfg.ReadTimeout, 15*time.Second)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      orDefault(cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       orDefault(cfg.IdleTimeout, 60*time.Second),
	}

	return &Server{
		httpServer: httpServer,
		handlers:   handlers,
	}
}

// Handler returns the routed handler (for testing).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web interface on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
