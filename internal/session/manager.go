// Package session owns the signed-in identity and its lifecycle.
//
// The Manager is the single writer of session state. Provider callbacks are
// funnelled through a channel into one event-loop goroutine, and every
// transition is stamped with a sequence number so late asynchronous results
// (profile hydration, expiry timers) can tell whether they are still current.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vaultspark/internal/notify"
	profilemodels "vaultspark/internal/profile/models"
	"vaultspark/internal/session/models"
	dErrors "vaultspark/pkg/domain-errors"
	"vaultspark/pkg/platform/audit"
)

const (
	opSignIn  = "sign_in"
	opSignUp  = "sign_up"
	opSignOut = "sign_out"

	// MsgConfirmEmail is shown after a sign-up that needs e-mail confirmation.
	MsgConfirmEmail = "Check your email to confirm your account"

	defaultEventBuffer     = 64
	defaultHydrateTimeout  = 10 * time.Second
	maxRememberedEndTokens = 32
)

// Manager tracks the session state machine:
//
//	unauthenticated -> authenticating -> authenticated | awaiting_confirmation
//	authenticating  -> error -> unauthenticated
//	any             -> unauthenticated (sign-out, expiry, remote sign-out)
type Manager struct {
	provider IdentityProvider
	profiles ProfileFetcher
	notifier Notifier
	emitter  audit.Emitter
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	clock    func() time.Time

	hydrateTimeout time.Duration

	mu        sync.Mutex
	state     models.Snapshot
	profile   *profilemodels.Profile
	wallet    WalletState
	expiry    *time.Timer
	subs      map[uint64]*subscriber
	nextSubID uint64
	endTokens map[string]struct{}
	started   bool
	closed    bool

	events      chan models.ProviderEvent
	done        chan struct{}
	loopDone    chan struct{}
	unsubscribe func()
	hydrations  sync.WaitGroup
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

func WithAuditEmitter(e audit.Emitter) Option {
	return func(m *Manager) {
		m.emitter = e
	}
}

func WithWallet(w WalletState) Option {
	return func(m *Manager) {
		m.wallet = w
	}
}

// WithClock overrides the time source used to arm expiry timers.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

func WithHydrateTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.hydrateTimeout = d
		}
	}
}

func WithEventBuffer(size int) Option {
	return func(m *Manager) {
		if size > 0 {
			m.events = make(chan models.ProviderEvent, size)
		}
	}
}

// NewManager creates a manager in the unauthenticated state. Call Start to
// subscribe to provider events and resume a persisted session.
func NewManager(provider IdentityProvider, profiles ProfileFetcher, opts ...Option) *Manager {
	m := &Manager{
		provider:       provider,
		profiles:       profiles,
		logger:         slog.Default(),
		tracer:         otel.Tracer("vaultspark/internal/session"),
		clock:          time.Now,
		hydrateTimeout: defaultHydrateTimeout,
		state:          models.Snapshot{Status: models.StatusUnauthenticated},
		subs:           make(map[uint64]*subscriber),
		endTokens:      make(map[string]struct{}),
		events:         make(chan models.ProviderEvent, defaultEventBuffer),
		done:           make(chan struct{}),
		loopDone:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AttachWallet sets the wallet state cleared on sign-out and restored by
// hydration. A wallet already connected is restored from the current profile.
func (m *Manager) AttachWallet(w WalletState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallet = w
	if w != nil && m.profile != nil && m.state.IsAuthenticated() {
		if addr := w.Restore(m.state.Session.Identity.UserID, m.profile.WalletAddress); addr != "" {
			m.profile.WalletAddress = addr
		}
	}
}

// Start subscribes to provider events, starts the event loop and resumes a
// persisted session if the provider has one. A failed resume leaves the
// manager unauthenticated.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started || m.closed {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	unsubscribe := m.provider.Subscribe(m.enqueueEvent)
	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()
	go m.loop()

	sess, err := m.provider.CurrentSession(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "session restore failed", "error", err)
		return nil
	}
	if sess == nil || sess.Expired(m.clock()) {
		return nil
	}

	m.mu.Lock()
	changed := m.transitionLocked(ctx, models.Snapshot{Status: models.StatusAuthenticated, Session: sess})
	m.mu.Unlock()
	if changed {
		audit.LogAudit(ctx, m.logger, m.emitter, audit.EventSessionStarted,
			"user_id", sess.Identity.UserID.String(),
			"reason", "restored",
		)
	}
	return nil
}

// Close stops the event loop, the expiry timer and every subscriber.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	started := m.started
	unsubscribe := m.unsubscribe
	m.stopExpiryLocked()
	for subID, sub := range m.subs {
		sub.stop()
		delete(m.subs, subID)
	}
	m.mu.Unlock()

	close(m.done)
	if unsubscribe != nil {
		unsubscribe()
	}
	if started {
		<-m.loopDone
	}
	m.hydrations.Wait()
}

// SignUp registers a new account. The result reports whether the provider
// issued a session or is waiting for e-mail confirmation.
func (m *Manager) SignUp(ctx context.Context, email, password string) (models.SignUpResult, error) {
	start := time.Now()
	defer m.metrics.observe(opSignUp, start)
	ctx, span := m.tracer.Start(ctx, "session.SignUp")
	defer span.End()

	m.beginAuthentication(ctx)

	res, err := m.provider.SignUp(ctx, email, password)
	if err != nil {
		return models.SignUpResult{}, m.fail(ctx, span, opSignUp, email, err)
	}

	if res.ConfirmationPending || res.Session == nil {
		m.mu.Lock()
		m.transitionLocked(ctx, models.Snapshot{Status: models.StatusAwaitingConfirmation, PendingEmail: email})
		m.mu.Unlock()

		m.notify(ctx, notify.Success(MsgConfirmEmail))
		span.SetAttributes(attribute.Bool("session.confirmation_pending", true))
		return models.SignUpResult{ConfirmationPending: true}, nil
	}

	m.establish(ctx, res.Session)
	return models.SignUpResult{Session: res.Session}, nil
}

// SignIn authenticates with email and password.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	start := time.Now()
	defer m.metrics.observe(opSignIn, start)
	ctx, span := m.tracer.Start(ctx, "session.SignIn")
	defer span.End()

	m.beginAuthentication(ctx)

	sess, err := m.provider.SignIn(ctx, email, password)
	if err == nil && sess == nil {
		err = dErrors.New(dErrors.CodeNetworkFailure, "identity provider returned no session")
	}
	if err != nil {
		return m.fail(ctx, span, opSignIn, email, err)
	}

	m.establish(ctx, sess)
	return nil
}

// SignOut ends the session locally first, then tells the provider. A provider
// failure is logged and never blocks the local transition.
func (m *Manager) SignOut(ctx context.Context) error {
	start := time.Now()
	defer m.metrics.observe(opSignOut, start)
	ctx, span := m.tracer.Start(ctx, "session.SignOut")
	defer span.End()

	m.mu.Lock()
	var token string
	ident, hadIdentity := m.state.Identity()
	if m.state.Session != nil {
		token = m.state.Session.AccessToken
		m.rememberEndedLocked(token)
	}
	m.transitionLocked(ctx, models.Snapshot{Status: models.StatusUnauthenticated})
	m.profile = nil
	if m.wallet != nil {
		m.wallet.Reset()
	}
	m.mu.Unlock()

	if token != "" {
		if err := m.provider.SignOut(ctx, token); err != nil {
			span.RecordError(err)
			m.logger.WarnContext(ctx, "provider sign-out failed", "error", err)
		}
	}
	if hadIdentity {
		audit.LogAudit(ctx, m.logger, m.emitter, audit.EventSessionEnded, "user_id", ident.UserID.String())
	}
	return nil
}

// OnSessionChange registers handler. It receives the current snapshot first,
// then every later transition in order, on a goroutine owned by this
// subscription. The returned function unsubscribes.
func (m *Manager) OnSessionChange(handler func(models.Snapshot)) (unsubscribe func()) {
	sub := newSubscriber(handler)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return func() {}
	}
	m.nextSubID++
	subID := m.nextSubID
	m.subs[subID] = sub
	sub.enqueue(m.state)
	m.mu.Unlock()

	go sub.run()

	return func() {
		m.mu.Lock()
		delete(m.subs, subID)
		m.mu.Unlock()
		sub.stop()
	}
}

// State returns the current snapshot.
func (m *Manager) State() models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Identity returns the signed-in identity, if any.
func (m *Manager) Identity() (models.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.IsAuthenticated() {
		return models.Identity{}, false
	}
	return m.state.Session.Identity, true
}

// Profile returns a copy of the hydrated profile, or nil before hydration.
func (m *Manager) Profile() *profilemodels.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return nil
	}
	p := *m.profile
	return &p
}

func (m *Manager) beginAuthentication(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionLocked(ctx, models.Snapshot{Status: models.StatusAuthenticating})
}

func (m *Manager) establish(ctx context.Context, sess *models.Session) {
	m.mu.Lock()
	changed := m.transitionLocked(ctx, models.Snapshot{Status: models.StatusAuthenticated, Session: sess})
	m.mu.Unlock()

	if changed {
		audit.LogAudit(ctx, m.logger, m.emitter, audit.EventSessionStarted,
			"user_id", sess.Identity.UserID.String(),
		)
	}
}

// fail passes through error{cause} to unauthenticated and returns the typed
// auth error.
func (m *Manager) fail(ctx context.Context, span trace.Span, op, email string, err error) error {
	authErr := authError(err)
	code := dErrors.CodeOf(authErr)

	m.mu.Lock()
	m.transitionLocked(ctx, models.Snapshot{Status: models.StatusError, Cause: code})
	m.transitionLocked(ctx, models.Snapshot{Status: models.StatusUnauthenticated})
	m.mu.Unlock()

	span.RecordError(err)
	span.SetStatus(codes.Error, string(code))
	m.metrics.authFailure(op, string(code))
	m.notify(ctx, notify.Failure(code, failureMessage(op, code)))
	audit.LogAudit(ctx, m.logger, m.emitter, audit.EventAuthFailed,
		"email", email,
		"reason", string(code),
		"operation", op,
	)
	return authErr
}

// transitionLocked moves to next unless it repeats the current logical state.
// It reports whether a transition happened.
func (m *Manager) transitionLocked(ctx context.Context, next models.Snapshot) bool {
	if m.closed {
		return false
	}
	if next.SameLogicalState(m.state) {
		m.metrics.duplicate()
		return false
	}

	prev := m.state
	next.Seq = prev.Seq + 1
	m.state = next
	m.stopExpiryLocked()

	prevIdent, hadIdentity := prev.Identity()
	nextIdent, hasIdentity := next.Identity()
	if hadIdentity && (!hasIdentity || nextIdent.UserID != prevIdent.UserID) {
		m.profile = nil
		if m.wallet != nil {
			m.wallet.Reset()
		}
	}

	if next.IsAuthenticated() {
		m.armExpiryLocked(next)
		m.startHydrationLocked(next)
	}

	for _, sub := range m.subs {
		sub.enqueue(next)
	}

	m.metrics.transition(string(next.Status))
	m.logger.DebugContext(ctx, "session transition",
		"from", string(prev.Status),
		"to", string(next.Status),
		"seq", next.Seq,
	)
	return true
}

// startHydrationLocked fetches the profile for snap without blocking the
// transition. The result is applied only if snap is still current.
func (m *Manager) startHydrationLocked(snap models.Snapshot) {
	if m.profiles == nil {
		return
	}
	seq := snap.Seq
	userID := snap.Session.Identity.UserID

	m.hydrations.Add(1)
	go func() {
		defer m.hydrations.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.hydrateTimeout)
		defer cancel()

		profile, err := m.profiles.GetProfile(ctx, userID)

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.state.Seq != seq || m.closed {
			m.metrics.hydration("stale")
			m.logger.Debug("discarding stale profile hydration", "seq", seq, "current_seq", m.state.Seq)
			return
		}
		if err != nil {
			m.metrics.hydration("failed")
			m.logger.Warn("profile hydration failed", "user_id", userID.String(), "error", err)
			return
		}
		if profile == nil {
			m.metrics.hydration("failed")
			return
		}
		if m.wallet != nil {
			if addr := m.wallet.Restore(userID, profile.WalletAddress); addr != "" {
				profile.WalletAddress = addr
			}
		}
		m.profile = profile
		m.metrics.hydration("applied")
	}()
}

func (m *Manager) armExpiryLocked(snap models.Snapshot) {
	expiresAt := snap.Session.ExpiresAt
	if expiresAt.IsZero() {
		return
	}
	delay := expiresAt.Sub(m.clock())
	if delay < 0 {
		delay = 0
	}
	seq := snap.Seq
	m.expiry = time.AfterFunc(delay, func() { m.expire(seq) })
}

func (m *Manager) stopExpiryLocked() {
	if m.expiry != nil {
		m.expiry.Stop()
		m.expiry = nil
	}
}

func (m *Manager) expire(seq uint64) {
	ctx := context.Background()

	m.mu.Lock()
	if m.closed || m.state.Seq != seq {
		m.mu.Unlock()
		return
	}
	ident, _ := m.state.Identity()
	if m.state.Session != nil {
		m.rememberEndedLocked(m.state.Session.AccessToken)
	}
	m.transitionLocked(ctx, models.Snapshot{Status: models.StatusUnauthenticated})
	m.mu.Unlock()

	audit.LogAudit(ctx, m.logger, m.emitter, audit.EventSessionExpired, "user_id", ident.UserID.String())
}

// rememberEndedLocked records a token that was signed out locally so a late
// provider echo carrying it cannot resurrect the session.
func (m *Manager) rememberEndedLocked(token string) {
	if token == "" {
		return
	}
	if len(m.endTokens) >= maxRememberedEndTokens {
		clear(m.endTokens)
	}
	m.endTokens[token] = struct{}{}
}

func (m *Manager) enqueueEvent(ev models.ProviderEvent) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

func (m *Manager) loop() {
	defer close(m.loopDone)
	for {
		select {
		case <-m.done:
			return
		case ev := <-m.events:
			m.apply(ev)
		}
	}
}

// apply folds one provider event into the state machine.
func (m *Manager) apply(ev models.ProviderEvent) {
	ctx := context.Background()

	m.mu.Lock()
	var (
		changed bool
		ended   models.Identity
		auditEv audit.AuditEvent
	)
	switch ev.Kind {
	case models.EventSignedIn, models.EventTokenRefreshed:
		if ev.Session == nil || ev.Session.Expired(m.clock()) {
			break
		}
		if _, revoked := m.endTokens[ev.Session.AccessToken]; revoked {
			break
		}
		if ev.Kind == models.EventTokenRefreshed {
			cur, ok := m.state.Identity()
			if !ok || !m.state.IsAuthenticated() || cur.UserID != ev.Session.Identity.UserID {
				break
			}
			auditEv = audit.EventTokenRefreshed
		} else {
			auditEv = audit.EventSessionStarted
		}
		changed = m.transitionLocked(ctx, models.Snapshot{Status: models.StatusAuthenticated, Session: ev.Session})
		ended = ev.Session.Identity
	case models.EventSignedOut:
		ident, ok := m.state.Identity()
		if !ok {
			break
		}
		if ev.Session != nil && ev.Session.AccessToken != "" && ev.Session.AccessToken != m.state.Session.AccessToken {
			m.metrics.duplicate()
			m.logger.Debug("ignoring sign-out of a session that is no longer current")
			break
		}
		changed = m.transitionLocked(ctx, models.Snapshot{Status: models.StatusUnauthenticated})
		ended = ident
		auditEv = audit.EventSessionEnded
	default:
		m.logger.Debug("ignoring unknown provider event", "kind", string(ev.Kind))
	}
	m.mu.Unlock()

	if changed && auditEv != "" {
		audit.LogAudit(ctx, m.logger, m.emitter, auditEv,
			"user_id", ended.UserID.String(),
			"reason", "provider_event",
		)
	}
}

func (m *Manager) notify(ctx context.Context, n notify.Notice) {
	if m.notifier != nil {
		m.notifier.Notify(ctx, n)
	}
}
