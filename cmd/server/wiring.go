package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"vaultspark/internal/analytics"
	analyticsservice "vaultspark/internal/analytics/service"
	"vaultspark/internal/identity"
	sessionstore "vaultspark/internal/identity/store/session"
	userstore "vaultspark/internal/identity/store/user"
	ledgermodels "vaultspark/internal/ledger/models"
	ledgerstore "vaultspark/internal/ledger/store"
	"vaultspark/internal/notify"
	"vaultspark/internal/platform/config"
	"vaultspark/internal/platform/metrics"
	"vaultspark/internal/platform/postgres"
	"vaultspark/internal/platform/redis"
	profileservice "vaultspark/internal/profile/service"
	profilestore "vaultspark/internal/profile/store"
	rolestore "vaultspark/internal/roles/store"
	"vaultspark/internal/session"
	httptransport "vaultspark/internal/transport/http"
	"vaultspark/internal/wallet"
	"vaultspark/internal/wallet/provider/rpc"
	audit "vaultspark/pkg/platform/audit"
	"vaultspark/pkg/platform/audit/publisher"
	"vaultspark/pkg/platform/audit/publishers/kafka"
	auditmemory "vaultspark/pkg/platform/audit/store/memory"
	auditpostgres "vaultspark/pkg/platform/audit/store/postgres"
	"vaultspark/pkg/platform/sentinel"
)

const (
	minRefreshInterval     = 5 * time.Second
	defaultRefreshInterval = 30 * time.Second
)

type profileStore interface {
	identity.ProfileCreator
	profileservice.Store
	analyticsservice.ProfileLister
	session.ProfileFetcher
	wallet.ProfileWriter
}

type ledgerStore interface {
	analyticsservice.LedgerReader
	Record(ctx context.Context, tx ledgermodels.Transaction) (ledgermodels.Transaction, error)
}

// app holds the long-lived components and everything that must be released
// on shutdown.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	provider *identity.Provider
	manager  *session.Manager
	linker   *wallet.Linker
	ledger   ledgerStore
	router   http.Handler

	closers []func()
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: log}
	m := metrics.New()
	feed := notify.NewFeed(cfg.Notify.Capacity, notify.WithLogger(log))
	health := []httptransport.Option{}

	var (
		db       *sql.DB
		profiles profileStore
		users    identity.UserStore
		roles    analyticsservice.RoleChecker
		tx       identity.TxRunner
	)
	if cfg.Postgres.URL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.onClose(func() { _ = db.Close() })
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				a.close()
				return nil, err
			}
		}
		profiles = profilestore.NewPostgres(db)
		users = userstore.NewPostgres(db)
		roles = rolestore.NewPostgres(db)
		a.ledger = ledgerstore.NewPostgres(db)
		tx = postgres.NewTxRunner(db)
		health = append(health, httptransport.WithHealthCheck("postgres", db.PingContext))
		log.Info("using postgres stores")
	} else {
		profiles = profilestore.NewInMemory()
		users = userstore.New()
		roles = rolestore.NewInMemory()
		a.ledger = ledgerstore.NewInMemory()
		log.Warn("DATABASE_URL not set; profiles, users and ledger are kept in memory")
	}

	var sessions identity.SessionStore = sessionstore.NewInMemory()
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.close()
		return nil, err
	}
	if rdb != nil {
		a.onClose(func() { _ = rdb.Close() })
		sessions = sessionstore.NewRedis(rdb.Client, cfg.Redis.SessionKey)
		health = append(health, httptransport.WithHealthCheck("redis", rdb.Health))
	}

	auditPub, err := a.buildAudit(ctx, m, db)
	if err != nil {
		a.close()
		return nil, err
	}
	a.onClose(auditPub.Close)

	providerOpts := []identity.Option{
		identity.WithLogger(log),
		identity.WithAuditEmitter(auditPub),
		identity.WithMetrics(m),
		identity.WithSessionStore(sessions),
		identity.WithTokenTTLs(cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL),
		identity.WithRefreshBefore(cfg.Auth.RefreshBefore),
		identity.WithBcryptCost(cfg.Auth.BcryptCost),
		identity.WithRequireConfirmation(cfg.Auth.RequireEmailConfirmation),
	}
	if tx != nil {
		providerOpts = append(providerOpts, identity.WithTxRunner(tx))
	}
	a.provider = identity.New(users, profiles,
		identity.NewTokenService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer),
		providerOpts...,
	)

	a.manager = session.NewManager(a.provider, profiles,
		session.WithLogger(log),
		session.WithMetrics(session.NewMetrics(m.Registry)),
		session.WithNotifier(feed),
		session.WithAuditEmitter(auditPub),
		session.WithHydrateTimeout(cfg.Auth.HydrateTimeout),
	)
	a.onClose(a.manager.Close)

	var walletProvider wallet.Provider
	if cfg.Wallet.RPCURL != "" {
		p, err := rpc.Dial(ctx, cfg.Wallet.RPCURL, rpc.WithLogger(log))
		if err != nil {
			// The daemon stays usable without a wallet; connects report the
			// provider as absent.
			log.Warn("wallet rpc unavailable", "error", err)
		} else {
			walletProvider = p
			a.onClose(p.Close)
		}
	}
	a.linker = wallet.New(walletProvider, profiles, a.manager,
		wallet.WithLogger(log),
		wallet.WithMetrics(wallet.NewMetrics(m.Registry)),
		wallet.WithNotifier(feed),
		wallet.WithAuditEmitter(auditPub),
		wallet.WithRequestTimeout(cfg.Wallet.RequestTimeout),
	)
	a.manager.AttachWallet(a.linker)

	analyticsSvc := analyticsservice.New(profiles, a.ledger, roles,
		analyticsservice.WithLogger(log),
		analyticsservice.WithMetrics(analyticsservice.NewMetrics(m.Registry)),
		analyticsservice.WithAuditEmitter(auditPub),
		analyticsservice.WithAdminRole(cfg.Analytics.AdminRole),
		analyticsservice.WithLocation(cfg.Analytics.Location()),
		analyticsservice.WithRecentUsers(cfg.Analytics.RecentUsers),
	)
	profileSvc := profileservice.New(profiles,
		profileservice.WithLogger(log),
		profileservice.WithNotifier(feed),
		profileservice.WithAuditEmitter(auditPub),
	)

	opts := append([]httptransport.Option{
		httptransport.WithLogger(log),
		httptransport.WithMetrics(m),
		httptransport.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		httptransport.WithRequestTimeout(cfg.Server.RequestTimeout),
	}, health...)
	if cfg.Auth.RequireEmailConfirmation {
		opts = append(opts, httptransport.WithEmailConfirmer(a.provider))
	}
	a.router = httptransport.New(a.manager, a.linker, profileSvc, analyticsSvc, feed, opts...).Router()
	return a, nil
}

// buildAudit chooses the audit store: postgres when a database is configured,
// memory otherwise, fronted by Kafka when brokers are set.
func (a *app) buildAudit(ctx context.Context, m *metrics.Metrics, db *sql.DB) (*publisher.Publisher, error) {
	cfg, log := a.cfg, a.logger
	var store audit.Store = auditmemory.NewInMemoryStore()
	if db != nil {
		store = auditpostgres.New(db)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		client, err := kafka.NewClient(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
		if err != nil {
			return nil, err
		}
		a.onClose(client.Close)
		if err := kafka.EnsureTopic(ctx, client, cfg.Kafka.Topic, cfg.Kafka.Partitions, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		store = kafka.New(client, cfg.Kafka.Topic, store,
			kafka.WithLogger(log),
			kafka.WithMetrics(kafka.NewMetrics(m.Registry)),
		)
		log.Info("audit events shipped to kafka", "topic", cfg.Kafka.Topic)
	}

	return publisher.NewPublisher(store,
		publisher.WithAsyncBuffer(cfg.Kafka.AuditBuffer),
		publisher.WithLogger(log),
	), nil
}

// start seeds the ledger, restores the previous session and launches the
// token refresher. The refresher stops with ctx.
func (a *app) start(ctx context.Context) error {
	if path := a.cfg.Ledger.SeedFile; path != "" {
		n, err := seedLedger(ctx, a.ledger, path)
		if err != nil {
			return err
		}
		a.logger.Info("ledger seeded", "path", path, "rows", n)
	}
	if err := a.manager.Start(ctx); err != nil {
		return fmt.Errorf("start session manager: %w", err)
	}
	go a.provider.RunRefresher(ctx, refreshInterval(a.cfg))
	return nil
}

func seedLedger(ctx context.Context, ledger ledgerStore, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open ledger seed: %w", err)
	}
	defer f.Close()

	txs, err := analytics.DecodeTransactions(f)
	if err != nil {
		return 0, fmt.Errorf("decode ledger seed: %w", err)
	}
	recorded := 0
	for _, tx := range txs {
		_, err := ledger.Record(ctx, tx)
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			// Already imported on an earlier start.
		case err != nil:
			return recorded, fmt.Errorf("record ledger row %s: %w", tx.ID, err)
		default:
			recorded++
		}
	}
	return recorded, nil
}

// refreshInterval polls often enough to renew inside the refresh window.
func refreshInterval(cfg *config.Config) time.Duration {
	if cfg.Auth.RefreshBefore <= 0 {
		return defaultRefreshInterval
	}
	return max(cfg.Auth.RefreshBefore/2, minRefreshInterval)
}
