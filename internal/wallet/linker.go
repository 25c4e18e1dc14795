// Package wallet links an external wallet account to the signed-in identity.
//
// The Linker is the only client-side writer of a profile's wallet address.
// Concurrent connect requests for the same session share one provider
// request. A Reset (sign-out) bumps an epoch so a connect that was in flight
// at the time is discarded instead of applied.
package wallet

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"vaultspark/internal/notify"
	profilemodels "vaultspark/internal/profile/models"
	id "vaultspark/pkg/domain"
	dErrors "vaultspark/pkg/domain-errors"
	"vaultspark/pkg/platform/audit"
	"vaultspark/pkg/platform/sentinel"
)

const (
	MsgConnected       = "Wallet connected successfully!"
	MsgProviderAbsent  = "No Ethereum wallet is available. Install MetaMask or start a wallet node."
	MsgConnectFailed   = "Failed to connect wallet"
	MsgPersistFailed   = "Wallet connected but could not be saved to your profile"
	anonymousFlightKey = "anonymous"
)

// Connection is the linker's view of the wallet.
type Connection struct {
	Address   string    `json:"address,omitempty"`
	Connected bool      `json:"connected"`
	Persisted bool      `json:"persisted"`
	UserID    id.UserID `json:"-"`
}

type state struct {
	conn  Connection
	epoch uint64
}

type Linker struct {
	provider Provider
	profiles ProfileWriter
	session  SessionView
	notifier Notifier
	emitter  audit.Emitter
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer

	requestTimeout time.Duration
	group          singleflight.Group

	mu    sync.Mutex
	state state
}

type Option func(*Linker)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Linker) {
		l.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(l *Linker) {
		l.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(l *Linker) {
		l.notifier = n
	}
}

func WithAuditEmitter(e audit.Emitter) Option {
	return func(l *Linker) {
		l.emitter = e
	}
}

// WithRequestTimeout bounds the provider request plus persistence.
func WithRequestTimeout(d time.Duration) Option {
	return func(l *Linker) {
		l.requestTimeout = d
	}
}

// New creates a linker. provider may be nil when no wallet is configured.
func New(provider Provider, profiles ProfileWriter, session SessionView, opts ...Option) *Linker {
	l := &Linker{
		provider: provider,
		profiles: profiles,
		session:  session,
		logger:   slog.Default(),
		tracer:   otel.Tracer("vaultspark/internal/wallet"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ConnectWallet asks the provider for accounts and links the first one.
//
// Concurrent calls for the same session share one provider request and one
// outcome. On a persistence failure the wallet stays connected locally and a
// persistence error is returned; calling again with the same address retries
// the write. Connecting an address that is already connected and persisted
// performs no write.
func (l *Linker) ConnectWallet(ctx context.Context) (Connection, error) {
	key, userID := l.flightKey()

	v, err, shared := l.group.Do(key, func() (any, error) {
		flightCtx := context.WithoutCancel(ctx)
		if l.requestTimeout > 0 {
			var cancel context.CancelFunc
			flightCtx, cancel = context.WithTimeout(flightCtx, l.requestTimeout)
			defer cancel()
		}
		return l.connect(flightCtx, userID)
	})
	if shared {
		l.metrics.shared()
	}
	conn, _ := v.(Connection)
	return conn, err
}

// Connection returns the current connection state.
func (l *Linker) Connection() Connection {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.conn
}

// Restore marks address as connected and persisted for userID. Called during
// profile hydration, which may have read the profile before a connect for the
// same user finished; a connection already held for userID is kept. It
// returns the address linked for userID afterwards, or "" when there is none.
func (l *Linker) Restore(userID id.UserID, address string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur := l.state.conn; cur.Connected && cur.UserID == userID && !userID.IsNil() {
		return cur.Address
	}
	if address == "" {
		return ""
	}
	addr, ok := NormalizeAddress(address)
	if !ok {
		l.logger.Warn("ignoring malformed stored wallet address", "user_id", userID.String())
		return ""
	}
	l.state.conn = Connection{Address: addr, Connected: true, Persisted: true, UserID: userID}
	return addr
}

// Reset clears the connection and invalidates in-flight connects.
func (l *Linker) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.epoch++
	l.state.conn = Connection{}
}

func (l *Linker) flightKey() (string, id.UserID) {
	if l.session == nil {
		return anonymousFlightKey, id.UserID{}
	}
	snap := l.session.State()
	if !snap.IsAuthenticated() {
		return anonymousFlightKey, id.UserID{}
	}
	ident := snap.Session.Identity
	return ident.UserID.String() + ":" + snap.Session.AccessToken, ident.UserID
}

func (l *Linker) connect(ctx context.Context, userID id.UserID) (Connection, error) {
	ctx, span := l.tracer.Start(ctx, "wallet.Connect")
	defer span.End()

	l.mu.Lock()
	epoch := l.state.epoch
	l.mu.Unlock()

	if l.provider == nil || !l.provider.IsAvailable() {
		err := dErrors.New(dErrors.CodeWalletProviderAbsent, "no wallet provider available")
		return Connection{}, l.failed(ctx, span, userID, err, MsgProviderAbsent)
	}

	start := time.Now()
	accounts, err := l.provider.RequestAccounts(ctx)
	l.metrics.providerLatency(time.Since(start).Seconds())
	if err != nil {
		wrapped := dErrors.Wrap(err, dErrors.CodeWalletRequestRejected, "wallet account request failed")
		return Connection{}, l.failed(ctx, span, userID, wrapped, MsgConnectFailed)
	}
	if len(accounts) == 0 {
		err := dErrors.New(dErrors.CodeWalletRequestRejected, "wallet returned no accounts")
		return Connection{}, l.failed(ctx, span, userID, err, MsgConnectFailed)
	}
	addr, ok := NormalizeAddress(accounts[0])
	if !ok {
		err := dErrors.New(dErrors.CodeWalletRequestRejected, "wallet returned a malformed address")
		return Connection{}, l.failed(ctx, span, userID, err, MsgConnectFailed)
	}
	span.SetAttributes(attribute.String("wallet.address", ShortAddress(addr)))

	l.mu.Lock()
	if l.state.epoch != epoch {
		l.mu.Unlock()
		l.metrics.outcome(string(dErrors.CodeConflict))
		l.logger.InfoContext(ctx, "discarding wallet connect that outlived its session")
		return Connection{}, dErrors.New(dErrors.CodeConflict, "session ended while connecting wallet")
	}
	prev := l.state.conn
	unchanged := prev.Connected && prev.Persisted && prev.Address == addr && prev.UserID == userID
	conn := Connection{Address: addr, Connected: true, Persisted: unchanged, UserID: userID}
	l.state.conn = conn
	l.mu.Unlock()

	switch {
	case userID.IsNil():
		// Nothing to persist without an identity.
		l.metrics.outcome("anonymous")
		l.notify(ctx, notify.Success(MsgConnected))
		return conn, nil
	case unchanged:
		l.metrics.outcome("unchanged")
		l.notify(ctx, notify.Success(MsgConnected))
		return conn, nil
	}

	if _, err := l.profiles.UpdateProfile(ctx, userID, profilemodels.Update{WalletAddress: &addr}); err != nil {
		perr := persistenceError(err)
		return conn, l.failed(ctx, span, userID, perr, MsgPersistFailed)
	}

	l.mu.Lock()
	if l.state.epoch == epoch && l.state.conn.Address == addr {
		l.state.conn.Persisted = true
		conn = l.state.conn
	}
	l.mu.Unlock()

	l.metrics.outcome("ok")
	l.notify(ctx, notify.Success(MsgConnected))
	audit.LogAudit(ctx, l.logger, l.emitter, audit.EventWalletLinked,
		"user_id", userID.String(),
		"wallet_address", addr,
	)
	return conn, nil
}

func (l *Linker) failed(ctx context.Context, span trace.Span, userID id.UserID, err error, msg string) error {
	code := dErrors.CodeOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(code))
	l.metrics.outcome(string(code))
	l.notify(ctx, notify.Failure(code, msg))

	attrs := []any{"reason", string(code)}
	if !userID.IsNil() {
		attrs = append(attrs, "user_id", userID.String())
	}
	audit.LogAudit(ctx, l.logger, l.emitter, audit.EventWalletLinkFailed, attrs...)
	return err
}

func (l *Linker) notify(ctx context.Context, n notify.Notice) {
	if l.notifier != nil {
		l.notifier.Notify(ctx, n)
	}
}

// persistenceError classifies a profile store failure. Unavailability and
// timeouts are transient; anything else is permanent.
func persistenceError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, sentinel.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return dErrors.Wrap(err, dErrors.CodePersistenceTransient, "failed to save wallet address, try again")
	default:
		return dErrors.Wrap(err, dErrors.CodePersistencePermanent, "failed to save wallet address")
	}
}
