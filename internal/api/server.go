package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/recurpay/internal/api/handler"
	mw "github.com/edvin/recurpay/internal/api/middleware"
	"github.com/edvin/recurpay/internal/config"
	"github.com/edvin/recurpay/internal/core"
	"github.com/edvin/recurpay/internal/ledger"
)

type Server struct {
	router      chi.Router
	logger      zerolog.Logger
	services    *core.Services
	pool        *pgxpool.Pool
	cfg         *config.Config
	auditLogger *mw.AuditLogger
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, cfg *config.Config) *Server {
	services := core.NewServices(pool, ledger.NewPG(), core.SystemClock{}, core.SubscriptionConfig{
		StorageDeposit:   cfg.StorageDeposit,
		AllowancePeriods: cfg.AllowancePeriods,
	})
	auditLogger := mw.NewAuditLogger(pool, logger)

	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		services:    services,
		pool:        pool,
		cfg:         cfg,
		auditLogger: auditLogger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.pool))
		r.Use(s.auditLogger.Middleware)

		// Funds accounts
		account := handler.NewAccount(s.services)
		r.Get("/accounts", account.List)
		r.Post("/accounts", account.Create)
		r.Get("/accounts/{id}", account.Get)
		r.Post("/accounts/{id}/deposit", account.Deposit)
		r.Get("/accounts/{id}/transfers", account.ListTransfers)

		// Subscriptions
		subscription := handler.NewSubscription(s.services)
		r.Get("/subscriptions", subscription.List)
		r.Post("/subscriptions", subscription.Create)
		r.Get("/subscriptions/{id}", subscription.Get)
		r.Post("/subscriptions/{id}/charge", subscription.Charge)
		r.Patch("/subscriptions/{id}", subscription.Update)
		r.Delete("/subscriptions/{id}", subscription.Cancel)
		r.Post("/subscriptions/{id}/cleanup", subscription.Cleanup)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.pool.Ping(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// Close flushes the audit logger.
func (s *Server) Close() {
	s.auditLogger.Close()
}
