// Package service feeds the aggregation engine from the stores and applies
// the admin gate for the platform view.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"vaultspark/internal/analytics"
	ledgermodels "vaultspark/internal/ledger/models"
	profilemodels "vaultspark/internal/profile/models"
	id "vaultspark/pkg/domain"
	dErrors "vaultspark/pkg/domain-errors"
	"vaultspark/pkg/platform/audit"
	"vaultspark/pkg/platform/sentinel"
	"vaultspark/pkg/requestcontext"
)

const (
	DefaultAdminRole          = "admin"
	DefaultRecentTransactions = 10
)

type Service struct {
	profiles ProfileLister
	ledger   LedgerReader
	roles    RoleChecker
	logger   *slog.Logger
	metrics  *Metrics
	emitter  audit.Emitter
	tracer   trace.Tracer

	adminRole   string
	location    *time.Location
	recentUsers int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditEmitter(e audit.Emitter) Option {
	return func(s *Service) {
		s.emitter = e
	}
}

func WithAdminRole(role string) Option {
	return func(s *Service) {
		if role != "" {
			s.adminRole = role
		}
	}
}

// WithLocation sets the zone whose calendar days volumeByDay follows.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithRecentUsers(n int) Option {
	return func(s *Service) {
		s.recentUsers = n
	}
}

func New(profiles ProfileLister, ledger LedgerReader, roles RoleChecker, opts ...Option) *Service {
	s := &Service{
		profiles:    profiles,
		ledger:      ledger,
		roles:       roles,
		logger:      slog.Default(),
		tracer:      otel.Tracer("vaultspark/internal/analytics"),
		adminRole:   DefaultAdminRole,
		location:    time.Local,
		recentUsers: analytics.DefaultRecentUsers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Portfolio returns the signed-in user's portfolio stats.
func (s *Service) Portfolio(ctx context.Context, userID id.UserID) (analytics.PortfolioStats, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.Portfolio")
	defer span.End()

	if userID.IsNil() {
		return analytics.PortfolioStats{}, dErrors.New(dErrors.CodeUnauthorized, "sign in to view your portfolio")
	}

	start := time.Now()
	txs, err := s.ledger.ListTransactions(ctx, ledgermodels.Filter{UserID: userID}, ledgermodels.OrderNone, 0)
	s.metrics.observeFetch("transactions", start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list transactions")
		return analytics.PortfolioStats{}, storeError(err, "failed to load transactions")
	}

	start = time.Now()
	stats := analytics.Portfolio(userID, txs)
	s.metrics.observeAggregate("portfolio", start)
	return stats, nil
}

// RecentTransactions returns the user's latest ledger rows, newest first.
func (s *Service) RecentTransactions(ctx context.Context, userID id.UserID, limit int) ([]ledgermodels.Transaction, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "sign in to view transactions")
	}
	if limit <= 0 {
		limit = DefaultRecentTransactions
	}

	start := time.Now()
	txs, err := s.ledger.ListTransactions(ctx, ledgermodels.Filter{UserID: userID}, ledgermodels.OrderNewestFirst, limit)
	s.metrics.observeFetch("transactions", start)
	if err != nil {
		return nil, storeError(err, "failed to load transactions")
	}
	return txs, nil
}

// IsAdmin reports whether userID holds the admin role.
func (s *Service) IsAdmin(ctx context.Context, userID id.UserID) (bool, error) {
	if userID.IsNil() {
		return false, nil
	}
	start := time.Now()
	ok, err := s.roles.HasRole(ctx, userID, s.adminRole)
	s.metrics.observeFetch("roles", start)
	if err != nil {
		return false, storeError(err, "failed to check role")
	}
	return ok, nil
}

// Platform returns the platform-wide view. Only admins may call it; everyone
// else gets CodeForbidden.
func (s *Service) Platform(ctx context.Context, userID id.UserID) (analytics.PlatformStats, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.Platform")
	defer span.End()

	if userID.IsNil() {
		return analytics.PlatformStats{}, dErrors.New(dErrors.CodeUnauthorized, "sign in to view analytics")
	}
	admin, err := s.IsAdmin(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "role check")
		return analytics.PlatformStats{}, err
	}
	if !admin {
		s.metrics.denied()
		audit.LogAudit(ctx, s.logger, s.emitter, audit.EventAdminAccessDenied,
			"user_id", userID.String(),
			"reason", "missing_role",
		)
		return analytics.PlatformStats{}, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}

	var (
		profiles []profilemodels.Profile
		txs      []ledgermodels.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		var err error
		profiles, err = s.profiles.ListProfiles(gctx)
		s.metrics.observeFetch("profiles", start)
		if err != nil {
			return storeError(err, "failed to load profiles")
		}
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		var err error
		filter := ledgermodels.Filter{Status: ledgermodels.StatusCompleted}
		txs, err = s.ledger.ListTransactions(gctx, filter, ledgermodels.OrderNone, 0)
		s.metrics.observeFetch("transactions", start)
		if err != nil {
			return storeError(err, "failed to load transactions")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch")
		return analytics.PlatformStats{}, err
	}

	start := time.Now()
	stats := analytics.Platform(analytics.PlatformInput{
		Profiles:     profiles,
		Transactions: txs,
		RecentLimit:  s.recentUsers,
	}, requestcontext.Now(ctx), s.location)
	s.metrics.observeAggregate("platform", start)

	audit.LogAudit(ctx, s.logger, s.emitter, audit.EventAdminAnalyticsViewed,
		"user_id", userID.String(),
	)
	return stats, nil
}

func storeError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodePersistenceTransient, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
