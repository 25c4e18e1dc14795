// Package identity is the local identity provider: it owns accounts,
// verifies credentials, issues and refreshes sessions and pushes session
// events to subscribers.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	identitymodels "vaultspark/internal/identity/models"
	profilemodels "vaultspark/internal/profile/models"
	"vaultspark/internal/session/models"
	id "vaultspark/pkg/domain"
	dErrors "vaultspark/pkg/domain-errors"
	"vaultspark/pkg/email"
	"vaultspark/pkg/platform/audit"
	"vaultspark/pkg/platform/sentinel"
)

const (
	DefaultAccessTTL     = time.Hour
	DefaultRefreshTTL    = 30 * 24 * time.Hour
	DefaultRefreshBefore = 5 * time.Minute
)

type credentials struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=6,max=72"`
}

// UserMetrics counts accounts created.
type UserMetrics interface {
	IncrementUsersCreated()
}

type Provider struct {
	users    UserStore
	profiles ProfileCreator
	sessions SessionStore
	tokens   *TokenService
	tx       TxRunner
	sender   ConfirmationSender
	emitter  audit.Emitter
	metrics  UserMetrics
	logger   *slog.Logger
	validate *validator.Validate
	clock    func() time.Time

	accessTTL           time.Duration
	refreshTTL          time.Duration
	refreshBefore       time.Duration
	bcryptCost          int
	requireConfirmation bool

	mu          sync.Mutex
	handlers    map[uint64]func(models.ProviderEvent)
	nextHandler uint64
	revoked     map[string]time.Time
}

type Option func(*Provider)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

func WithAuditEmitter(e audit.Emitter) Option {
	return func(p *Provider) {
		p.emitter = e
	}
}

func WithMetrics(m UserMetrics) Option {
	return func(p *Provider) {
		p.metrics = m
	}
}

// WithSessionStore persists the current session so it survives restarts.
func WithSessionStore(s SessionStore) Option {
	return func(p *Provider) {
		p.sessions = s
	}
}

func WithTxRunner(tx TxRunner) Option {
	return func(p *Provider) {
		p.tx = tx
	}
}

func WithConfirmationSender(s ConfirmationSender) Option {
	return func(p *Provider) {
		p.sender = s
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *Provider) {
		p.clock = clock
	}
}

func WithTokenTTLs(access, refresh time.Duration) Option {
	return func(p *Provider) {
		if access > 0 {
			p.accessTTL = access
		}
		if refresh > 0 {
			p.refreshTTL = refresh
		}
	}
}

// WithRefreshBefore sets how long before expiry the refresher renews a session.
func WithRefreshBefore(d time.Duration) Option {
	return func(p *Provider) {
		p.refreshBefore = d
	}
}

func WithBcryptCost(cost int) Option {
	return func(p *Provider) {
		p.bcryptCost = cost
	}
}

// WithRequireConfirmation makes sign-up wait for e-mail confirmation and
// rejects sign-in to unconfirmed accounts.
func WithRequireConfirmation(required bool) Option {
	return func(p *Provider) {
		p.requireConfirmation = required
	}
}

func New(users UserStore, profiles ProfileCreator, tokens *TokenService, opts ...Option) *Provider {
	p := &Provider{
		users:         users,
		profiles:      profiles,
		tokens:        tokens,
		logger:        slog.Default(),
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		clock:         time.Now,
		accessTTL:     DefaultAccessTTL,
		refreshTTL:    DefaultRefreshTTL,
		refreshBefore: DefaultRefreshBefore,
		bcryptCost:    bcrypt.DefaultCost,
		handlers:      make(map[uint64]func(models.ProviderEvent)),
		revoked:       make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tx == nil {
		p.tx = &lockingTx{}
	}
	if p.sender == nil {
		p.sender = logSender{logger: p.logger}
	}
	return p
}

// SignUp creates an account and its empty profile in one unit of work. When
// confirmation is required no session is issued and a confirmation token is
// sent instead.
func (p *Provider) SignUp(ctx context.Context, email, password string) (models.SignUpResult, error) {
	creds, err := p.credentials(email, password)
	if err != nil {
		return models.SignUpResult{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), p.bcryptCost)
	if err != nil {
		return models.SignUpResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := p.clock()
	user := &identitymodels.User{
		ID:           id.NewUserID(),
		Email:        creds.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if p.requireConfirmation {
		user.ConfirmationToken = uuid.NewString()
	} else {
		confirmedAt := now
		user.ConfirmedAt = &confirmedAt
	}

	err = p.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := p.users.Create(ctx, user); err != nil {
			return err
		}
		return p.profiles.CreateProfile(ctx, profilemodels.Profile{UserID: user.ID, CreatedAt: now, UpdatedAt: now})
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return models.SignUpResult{}, dErrors.Wrap(err, dErrors.CodeInvalidCredentials, "email already registered")
		}
		return models.SignUpResult{}, storeError(err, "failed to create account")
	}
	if p.metrics != nil {
		p.metrics.IncrementUsersCreated()
	}
	audit.LogAudit(ctx, p.logger, p.emitter, audit.EventUserRegistered,
		"user_id", user.ID.String(),
		"email", user.Email,
	)

	if p.requireConfirmation {
		if err := p.sender.SendConfirmation(ctx, user.Email, user.ConfirmationToken); err != nil {
			p.logger.WarnContext(ctx, "failed to send confirmation", "user_id", user.ID.String(), "error", err)
		}
		return models.SignUpResult{ConfirmationPending: true}, nil
	}

	sess, err := p.issue(ctx, models.Identity{UserID: user.ID, Email: user.Email}, id.NewSessionID())
	if err != nil {
		return models.SignUpResult{}, err
	}
	p.publish(models.ProviderEvent{Kind: models.EventSignedIn, Session: sess})
	return models.SignUpResult{Session: sess}, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	creds, err := p.credentials(email, password)
	if err != nil {
		return nil, err
	}
	user, err := p.users.FindByEmail(ctx, creds.Email)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")
	}
	if err != nil {
		return nil, storeError(err, "failed to look up account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")
	}
	if p.requireConfirmation && !user.Confirmed() {
		return nil, dErrors.New(dErrors.CodeUnconfirmedAccount, "email not confirmed")
	}

	sess, err := p.issue(ctx, models.Identity{UserID: user.ID, Email: user.Email}, id.NewSessionID())
	if err != nil {
		return nil, err
	}
	p.publish(models.ProviderEvent{Kind: models.EventSignedIn, Session: sess})
	return sess, nil
}

// SignOut revokes the session accessToken belongs to and forgets it. An
// invalid or expired token still clears the stored session.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	now := p.clock()
	if claims, err := p.tokens.Validate(accessToken, TokenAccess, now); err == nil {
		p.revoke(sessionKey(claims.SessionID), now.Add(p.refreshTTL))
	}

	ended := &models.Session{AccessToken: accessToken}
	var storeErr error
	if p.sessions != nil {
		current, err := p.sessions.Load(ctx)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
		case err != nil:
			storeErr = err
		case current.AccessToken == accessToken || accessToken == "":
			ended = current
			storeErr = p.sessions.Clear(ctx)
		}
	}

	p.publish(models.ProviderEvent{Kind: models.EventSignedOut, Session: ended})
	if storeErr != nil {
		return storeError(storeErr, "failed to clear stored session")
	}
	return nil
}

// Subscribe registers handler for provider events. Handlers run on the
// goroutine that caused the event.
func (p *Provider) Subscribe(handler func(models.ProviderEvent)) (unsubscribe func()) {
	p.mu.Lock()
	key := p.nextHandler
	p.nextHandler++
	p.handlers[key] = handler
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.handlers, key)
			p.mu.Unlock()
		})
	}
}

// CurrentSession returns the stored session, refreshing it first when its
// access token has expired. It returns nil when there is nothing to resume.
func (p *Provider) CurrentSession(ctx context.Context) (*models.Session, error) {
	if p.sessions == nil {
		return nil, nil
	}
	sess, err := p.sessions.Load(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, "failed to load stored session")
	}
	if !sess.Expired(p.clock()) {
		return sess, nil
	}

	refreshed, err := p.refresh(ctx, sess)
	if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
		p.logger.InfoContext(ctx, "stored session can no longer be refreshed", "reason", err.Error())
		if clearErr := p.sessions.Clear(ctx); clearErr != nil {
			p.logger.WarnContext(ctx, "failed to clear stale session", "error", clearErr)
		}
		return nil, nil
	}
	return refreshed, err
}

// Refresh renews the stored session with its refresh token. Each refresh
// token is accepted once.
func (p *Provider) Refresh(ctx context.Context) (*models.Session, error) {
	if p.sessions == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no session to refresh")
	}
	sess, err := p.sessions.Load(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no session to refresh")
	}
	if err != nil {
		return nil, storeError(err, "failed to load stored session")
	}
	return p.refresh(ctx, sess)
}

// RunRefresher renews the stored session shortly before it expires until ctx
// is cancelled. A session that cannot be renewed is signed out.
func (p *Provider) RunRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshIfDue(ctx)
		}
	}
}

func (p *Provider) refreshIfDue(ctx context.Context) {
	if p.sessions == nil {
		return
	}
	sess, err := p.sessions.Load(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return
	}
	if err != nil {
		p.logger.WarnContext(ctx, "refresher could not load session", "error", err)
		return
	}
	if sess.ExpiresAt.Sub(p.clock()) > p.refreshBefore {
		return
	}
	_, err = p.refresh(ctx, sess)
	switch {
	case err == nil:
	case dErrors.HasCode(err, dErrors.CodeUnauthorized):
		p.logger.InfoContext(ctx, "session refresh rejected, signing out", "reason", err.Error())
		if clearErr := p.sessions.Clear(ctx); clearErr != nil {
			p.logger.WarnContext(ctx, "failed to clear stale session", "error", clearErr)
		}
		p.publish(models.ProviderEvent{Kind: models.EventSignedOut, Session: sess})
	default:
		p.logger.WarnContext(ctx, "session refresh failed", "error", err)
	}
}

// ConfirmEmail consumes a confirmation token.
func (p *Provider) ConfirmEmail(ctx context.Context, token string) error {
	user, err := p.users.ConfirmByToken(ctx, strings.TrimSpace(token), p.clock())
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "confirmation token not found or already used")
	}
	if err != nil {
		return storeError(err, "failed to confirm email")
	}
	audit.LogAudit(ctx, p.logger, p.emitter, audit.EventEmailConfirmed,
		"user_id", user.ID.String(),
		"email", user.Email,
	)
	return nil
}

func (p *Provider) refresh(ctx context.Context, sess *models.Session) (*models.Session, error) {
	now := p.clock()
	claims, err := p.tokens.Validate(sess.RefreshToken, TokenRefresh, now)
	if err != nil {
		return nil, err
	}
	ident, err := claims.Identity()
	if err != nil {
		return nil, err
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token session")
	}
	if !p.consumeRefresh(claims, now) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "refresh token revoked or already used")
	}

	next, err := p.issue(ctx, ident, sessionID)
	if err != nil {
		return nil, err
	}
	p.publish(models.ProviderEvent{Kind: models.EventTokenRefreshed, Session: next})
	audit.LogAudit(ctx, p.logger, p.emitter, audit.EventTokenRefreshed,
		"user_id", ident.UserID.String(),
	)
	return next, nil
}

func (p *Provider) issue(ctx context.Context, ident models.Identity, sessionID id.SessionID) (*models.Session, error) {
	now := p.clock()
	access, err := p.tokens.Generate(ident, sessionID, TokenAccess, now, p.accessTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign access token")
	}
	refresh, err := p.tokens.Generate(ident, sessionID, TokenRefresh, now, p.refreshTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign refresh token")
	}
	sess := &models.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(p.accessTTL).Truncate(time.Second),
		Identity:     ident,
	}
	if p.sessions != nil {
		if err := p.sessions.Save(ctx, sess, p.refreshTTL); err != nil {
			// The session is still valid; it just won't survive a restart.
			p.logger.WarnContext(ctx, "failed to persist session", "user_id", ident.UserID.String(), "error", err)
		}
	}
	return sess, nil
}

func (p *Provider) credentials(address, password string) (credentials, error) {
	creds := credentials{Email: email.Normalize(address), Password: password}
	if err := p.validate.Struct(creds); err != nil {
		return credentials{}, dErrors.Wrap(err, dErrors.CodeValidation, "email or password is malformed")
	}
	return creds, nil
}

func (p *Provider) publish(ev models.ProviderEvent) {
	p.mu.Lock()
	handlers := make([]func(models.ProviderEvent), 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

func (p *Provider) revoke(key string, until time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked(p.clock())
	p.revoked[key] = until
}

// consumeRefresh marks the refresh token used and reports whether it was
// still acceptable.
func (p *Provider) consumeRefresh(claims *Claims, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked(now)
	if _, ok := p.revoked[sessionKey(claims.SessionID)]; ok {
		return false
	}
	jti := jtiKey(claims.ID)
	if _, ok := p.revoked[jti]; ok {
		return false
	}
	p.revoked[jti] = claims.ExpiresAt.Time
	return true
}

func (p *Provider) pruneLocked(now time.Time) {
	for k, until := range p.revoked {
		if !now.Before(until) {
			delete(p.revoked, k)
		}
	}
}

func sessionKey(sessionID string) string { return "session:" + sessionID }
func jtiKey(jti string) string           { return "jti:" + jti }

func storeError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeNetworkFailure, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// lockingTx serialises units of work for in-memory stores, which have no
// rollback.
type lockingTx struct {
	mu sync.Mutex
}

func (t *lockingTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

// logSender writes confirmation tokens to the log. It stands in for mail
// delivery on a local daemon.
type logSender struct {
	logger *slog.Logger
}

func (s logSender) SendConfirmation(ctx context.Context, email, token string) error {
	s.logger.InfoContext(ctx, "email confirmation required", "email", email, "confirmation_token", token)
	return nil
}
