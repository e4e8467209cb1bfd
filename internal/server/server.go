// Package server is the composition root: it opens the database, builds the
// services and handlers, mounts the routes and runs the HTTP listener until
// SIGINT or SIGTERM.
//
//	config.Config → sqlite.DB → services → handlers → chi routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/nutri-track/internal/auth"
	"github.com/sakif/nutri-track/internal/config"
	"github.com/sakif/nutri-track/internal/handler"
	"github.com/sakif/nutri-track/internal/middleware"
	"github.com/sakif/nutri-track/internal/recognition"
	"github.com/sakif/nutri-track/internal/recognition/gateway"
	sqliteRepo "github.com/sakif/nutri-track/internal/repository/sqlite"
	"github.com/sakif/nutri-track/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the database handle and closes it on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB

	recognizer recognition.Recognizer
	oauth      auth.OAuthProvider
}

// Option replaces a collaborator that New would otherwise build from the
// config.
type Option func(*Server)

// WithRecognizer uses r instead of the configured AI gateway.
func WithRecognizer(r recognition.Recognizer) Option {
	return func(s *Server) { s.recognizer = r }
}

// WithOAuthProvider uses p instead of GitHub.
func WithOAuthProvider(p auth.OAuthProvider) Option {
	return func(s *Server) { s.oauth = p }
}

// New opens and migrates the database and wires every route.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	db, err := sqliteRepo.New(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes mounts:
//
//	GET    /healthz
//	POST   /auth/register | /auth/login | /auth/logout
//	GET    /auth/github/login | /auth/github/callback   (when GitHub is configured)
//	GET    /api/me
//	GET    /api/profile, PUT /api/profile, GET /api/targets
//	GET    /api/meals, POST /api/meals
//	GET    /api/meals/{id}, PATCH /api/meals/{id}, DELETE /api/meals/{id}
//	GET    /api/dashboard/today | /history | /weekly
//	POST   /api/servings/scale
//	POST   /api/analyze
//
// Middleware order: request ID, real IP, logging, panic recovery. Everything
// under /api requires a session.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(auth.DefaultCost)

	if s.oauth == nil && s.config.GitHub.Enabled() {
		gh := s.config.GitHub
		s.oauth = auth.NewGitHubProvider(gh.ClientID, gh.ClientSecret, gh.CallbackURL)
	}
	if s.recognizer == nil && s.config.Recognition.Enabled() {
		rc := s.config.Recognition
		gcfg := gateway.DefaultConfig()
		gcfg.URL, gcfg.APIKey, gcfg.Model = rc.URL, rc.APIKey, rc.Model
		client, err := gateway.New(gcfg, s.logger)
		if err != nil {
			return fmt.Errorf("creating recognition gateway: %w", err)
		}
		s.recognizer = client
	}
	if s.recognizer == nil {
		s.logger.Warn("AI_GATEWAY_API_KEY not set; /api/analyze will return 503")
	}

	// *sqliteRepo.DB implements every repository interface.
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	mealService := service.NewMealService(s.db, s.logger)
	profileService := service.NewProfileService(s.db, s.logger)
	dashboardService := service.NewDashboardService(s.db, s.db, s.logger)
	foodService := service.NewFoodService(s.recognizer, s.logger)

	loc := s.config.Timezone
	authHandler := handler.NewAuthHandler(authService, s.oauth, tokens.TTL(), s.config.Auth.CookieSecure, s.logger)
	mealHandler := handler.NewMealHandler(mealService, loc, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, loc, s.logger)
	foodHandler := handler.NewFoodHandler(foodService, s.config.Recognition.Timeout, s.logger)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		if s.oauth != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Use(middleware.RecordUser)

		r.Get("/me", authHandler.HandleMe)

		r.Get("/profile", profileHandler.HandleGet)
		r.Put("/profile", profileHandler.HandleSave)
		r.Get("/targets", profileHandler.HandleTargets)

		r.Get("/meals", mealHandler.HandleList)
		r.Post("/meals", mealHandler.HandleCreate)
		r.Get("/meals/{id}", mealHandler.HandleGet)
		r.Patch("/meals/{id}", mealHandler.HandleUpdate)
		r.Delete("/meals/{id}", mealHandler.HandleDelete)

		r.Get("/dashboard/today", dashboardHandler.HandleToday)
		r.Get("/dashboard/history", dashboardHandler.HandleHistory)
		r.Get("/dashboard/weekly", dashboardHandler.HandleWeekly)

		r.Post("/servings/scale", foodHandler.HandleScale)
		r.Post("/analyze", foodHandler.HandleAnalyze)
	})

	return nil
}

// handleHealth reports whether the database answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.Write([]byte(`{"status":"ok"}`))
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to shutdownTimeout and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Analysis may legitimately take up to ANALYZE_TIMEOUT.
		WriteTimeout: s.config.Recognition.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("database", s.config.Database.Path),
			slog.String("timezone", s.config.Timezone.String()),
			slog.Bool("github", s.oauth != nil),
			slog.Bool("recognition", s.recognizer != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
