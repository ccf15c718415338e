package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/foliotrack/foliotrack/internal/modules/accounts"
	"github.com/foliotrack/foliotrack/internal/modules/ledger"
	"github.com/foliotrack/foliotrack/internal/modules/portfolios"
	"github.com/foliotrack/foliotrack/internal/modules/prices"
	"github.com/foliotrack/foliotrack/internal/modules/securities"
	"github.com/foliotrack/foliotrack/internal/modules/valuation"
)

// Handlers bundles the per-module handler sets the router mounts
type Handlers struct {
	Accounts   *accounts.Handlers
	Portfolios *portfolios.Handlers
	Securities *securities.Handlers
	Ledger     *ledger.Handlers
	Prices     *prices.Handlers
	Valuation  *valuation.Handlers
}

// Config holds server configuration
type Config struct {
	Port     int
	Log      zerolog.Logger
	DevMode  bool
	Handlers Handlers
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	port   int
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		port:   cfg.Port,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg.Handlers)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(h Handlers) {
	// Health check
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.Accounts.HandleRegister)
			r.Post("/login", h.Accounts.HandleLogin)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.Accounts.HandleListAccounts)
			r.Post("/", h.Accounts.HandleCreateAccount)
			r.Get("/{accountID}", h.Accounts.HandleGetAccount)
		})

		r.Route("/securities", func(r chi.Router) {
			r.Get("/", h.Securities.HandleList)
			r.Post("/", h.Securities.HandleCreate)

			r.Route("/{securityID}", func(r chi.Router) {
				r.Get("/", h.Securities.HandleGet)
				r.Post("/tags", h.Securities.HandleAddTag)
				r.Get("/tags", h.Securities.HandleGetTags)

				r.Route("/prices", func(r chi.Router) {
					r.Post("/", h.Prices.HandleUpsert)
					r.Get("/latest", h.Prices.HandleLatest)
					r.Post("/import", h.Prices.HandleImport)
					r.Get("/analytics", h.Prices.HandleAnalytics)
				})
			})
		})

		r.Route("/portfolios", func(r chi.Router) {
			r.Get("/", h.Portfolios.HandleList)
			r.Post("/", h.Portfolios.HandleCreate)

			r.Route("/{portfolioID}", func(r chi.Router) {
				r.Get("/", h.Portfolios.HandleGet)
				r.Put("/account", h.Portfolios.HandleRelinkAccount)

				r.Post("/trades", h.Ledger.HandleRecordTrade)
				r.Post("/dividends", h.Ledger.HandleRecordDividend)
				r.Get("/trades", h.Ledger.HandleHistory)

				r.Get("/snapshot", h.Valuation.HandleSnapshot)
				r.Get("/holdings", h.Valuation.HandleHoldings)
				r.Post("/holdings/rebuild", h.Valuation.HandleRebuild)
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
