package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vacancy-codes/internal/match"
	"github.com/vacancy-codes/internal/web/handlers"
	"github.com/vacancy-codes/internal/web/middleware"
)

// Deps are the collaborators the server routes to
type Deps struct {
	DB          *sql.DB
	Areas       *match.Matcher
	Occupations *match.Matcher
	Vacancies   handlers.VacancyLister
	Runs        handlers.RunSource
	Logger      *zap.Logger
}

// Server represents the web server
type Server struct {
	config     *Config
	deps       Deps
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a new web server instance
func NewServer(config *Config, deps Deps) (*Server, error) {
	if deps.Areas == nil || deps.Occupations == nil {
		return nil, errors.New("web: both matchers are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	server := &Server{
		config: config,
		deps:   deps,
	}

	// Setup routes
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()
	logger := s.deps.Logger

	handlerConfig := &handlers.Config{}
	handlerConfig.Features.ExportEnabled = s.config.Features.ExportEnabled

	apiHandler := &handlers.APIHandler{Areas: s.deps.Areas, Occupations: s.deps.Occupations}
	if s.deps.DB != nil {
		apiHandler.DB = s.deps.DB
	}

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/match", apiHandler.Match).Methods("POST", "OPTIONS")
	api.HandleFunc("/catalogs/{kind}", apiHandler.GetCatalog).Methods("GET")

	if s.deps.Runs != nil {
		runsHandler := &handlers.RunsHandler{Runs: s.deps.Runs, Logger: logger}
		api.HandleFunc("/runs", runsHandler.ListRuns).Methods("GET")
		api.HandleFunc("/runs/{id}", runsHandler.GetRun).Methods("GET")
	}

	// Export endpoint (if enabled)
	if s.config.Features.ExportEnabled && s.deps.Vacancies != nil {
		exportHandler := &handlers.ExportHandler{Store: s.deps.Vacancies, Config: handlerConfig, Logger: logger}
		api.HandleFunc("/export", exportHandler.ExportData).Methods("GET")
	}

	if s.config.Auth.Enabled {
		// Apply authentication middleware to API routes only
		api.Use(middleware.Authentication(s.config.Auth.APIKey))
	}

	// Health and metrics stay outside the authenticated subrouter
	s.router.HandleFunc("/api/health", apiHandler.Health).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Apply middleware
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging(logger))
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	logger := s.deps.Logger
	errCh := make(chan error, 1)

	go func() {
		logger.Info("starting server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
