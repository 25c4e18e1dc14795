// Package httptransport is the local companion API. It translates HTTP to
// session, wallet, profile and analytics calls and keeps no business logic.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"vaultspark/internal/platform/metrics"
	"vaultspark/internal/platform/middleware"
	"vaultspark/pkg/platform/middleware/requesttime"
)

const defaultRequestTimeout = 30 * time.Second

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	sessions  SessionService
	confirmer EmailConfirmer
	wallet    WalletService
	profiles  ProfileService
	analytics AnalyticsService
	notices   NoticeFeed
	metrics   *metrics.Metrics
	logger    *slog.Logger
	validate  *validator.Validate

	health         map[string]HealthCheck
	allowedOrigins []string
	requestTimeout time.Duration
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func WithEmailConfirmer(c EmailConfirmer) Option {
	return func(h *Handler) {
		h.confirmer = c
	}
}

// WithHealthCheck adds a named dependency to GET /health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(h *Handler) {
		h.health[name] = check
	}
}

// WithAllowedOrigins lists the browser origins allowed to open the session
// stream. Empty means same-origin only.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) {
		h.allowedOrigins = origins
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.requestTimeout = d
		}
	}
}

func New(
	sessions SessionService,
	walletSvc WalletService,
	profiles ProfileService,
	analyticsSvc AnalyticsService,
	notices NoticeFeed,
	opts ...Option,
) *Handler {
	h := &Handler{
		sessions:       sessions,
		wallet:         walletSvc,
		profiles:       profiles,
		analytics:      analyticsSvc,
		notices:        notices,
		logger:         slog.Default(),
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		health:         make(map[string]HealthCheck),
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router builds the chi router with the shared middleware chain.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(h.logger))
	if h.metrics != nil {
		r.Use(middleware.Latency(h.metrics))
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Get("/health", h.handleHealth)

	// The stream is long-lived and must not inherit the request timeout.
	r.Get("/session/stream", h.handleSessionStream)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(h.requestTimeout))
		h.registerAuth(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(h.sessions, h.logger))
			h.registerProfile(r)
			h.registerAnalytics(r)
		})
		h.registerWallet(r)
		r.Get("/notifications", h.handleNotifications)
	})
	return r
}
