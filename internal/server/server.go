package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/numberdesk/numberdesk/internal/config"
	"github.com/numberdesk/numberdesk/internal/handler"
	"github.com/numberdesk/numberdesk/internal/model"
	"github.com/numberdesk/numberdesk/internal/openapi"
	"github.com/numberdesk/numberdesk/internal/server/middleware"
	"github.com/numberdesk/numberdesk/internal/service"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MaxBodySize     int64 // bytes, 0 disables the limit
	ProtectNumbers  bool
	Version         string
}

// ConfigFrom derives the server settings from the application config.
func ConfigFrom(cfg config.Config) Config {
	return Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
		MaxBodySize:     cfg.Server.MaxBodySize,
		ProtectNumbers:  cfg.Auth.ProtectNumbers,
	}
}

// Server is the top-level HTTP server. It owns the chi router and the
// services the handlers delegate to.
type Server struct {
	cfg        Config
	router     chi.Router
	dir        *service.Directory
	authSvc    *service.AuthService
	health     handler.HealthSource
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, dir *service.Directory, authSvc *service.AuthService, health handler.HealthSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		dir:     dir,
		authSvc: authSvc,
		health:  health,
		logger:  logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if s.cfg.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(s.cfg.MaxBodySize))
	}
	r.Use(chimw.Compress(5))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	dirHandler := handler.NewDirectoryHandler(s.dir, s.logger)
	authHandler := handler.NewAuthHandler(s.authSvc, s.logger)
	healthHandler := handler.NewHealthHandler(s.health, handler.Endpoints(s.cfg.ProtectNumbers), s.logger)
	docsHandler := handler.NewDocsHandler(openapi.Generate(openapi.Options{
		ProtectNumbers: s.cfg.ProtectNumbers,
		Version:        s.cfg.Version,
	}))
	requireBearer := middleware.Authenticate(s.authSvc, s.logger)

	// --- System (no auth required) ---
	r.Get("/health", healthHandler.Health)
	r.Get("/openapi.json", docsHandler.ServeSpec)
	r.Get("/swagger", http.RedirectHandler("/swagger/", http.StatusMovedPermanently).ServeHTTP)
	r.Get("/swagger/", docsHandler.ServeSwaggerUI)

	// --- Users ---
	r.Route("/users", func(r chi.Router) {
		r.Post("/register", dirHandler.RegisterUser)
		r.Get("/all", dirHandler.ListUsers)
		r.Delete("/delete_all", dirHandler.DeleteAllUsers)
		r.Delete("/delete/{id}", dirHandler.DeleteUser)
	})

	// --- Phone numbers ---
	r.Route("/numbers", func(r chi.Router) {
		r.Get("/all", dirHandler.ListNumbers)
		r.Delete("/delete_all", dirHandler.DeleteAllNumbers)
		r.Delete("/delete/{id}", dirHandler.DeleteNumber)

		r.Group(func(r chi.Router) {
			if s.cfg.ProtectNumbers {
				r.Use(requireBearer)
			}
			r.Post("/detail_number", dirHandler.SaveNumber)
		})
	})

	// --- Auth ---
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
	})

	s.router = r
}

// writeError writes the standard error envelope for router-level failures.
func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{Code: code, Message: message},
	})
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled or
// a SIGINT or SIGTERM is received. It then drains in-flight requests within
// the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
