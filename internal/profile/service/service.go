// Package service lets the signed-in user read and edit their own profile.
// The wallet address is not editable here; only the wallet linker writes it.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"vaultspark/internal/notify"
	"vaultspark/internal/profile/models"
	id "vaultspark/pkg/domain"
	dErrors "vaultspark/pkg/domain-errors"
	pkgemail "vaultspark/pkg/email"
	"vaultspark/pkg/platform/audit"
	"vaultspark/pkg/platform/sentinel"
)

const (
	MsgUpdated      = "Profile updated successfully!"
	MsgUpdateFailed = "Error updating profile"
)

// Store is the subset of the profile store this service uses.
type Store interface {
	GetProfile(ctx context.Context, userID id.UserID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID id.UserID, u models.Update) (*models.Profile, error)
}

type Notifier interface {
	Notify(ctx context.Context, n notify.Notice)
}

// UpdateRequest is an edit of the user-editable fields. Nil fields are kept;
// an empty string clears the field.
type UpdateRequest struct {
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type Service struct {
	store    Store
	notifier Notifier
	emitter  audit.Emitter
	logger   *slog.Logger
	validate *validator.Validate
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithAuditEmitter(e audit.Emitter) Option {
	return func(s *Service) {
		s.emitter = e
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		logger:   slog.Default(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "sign in to view your profile")
	}
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	return p, nil
}

// Update applies req to the user's profile. An empty request returns the
// profile unchanged without writing.
func (s *Service) Update(ctx context.Context, userID id.UserID, req UpdateRequest) (*models.Profile, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "sign in to edit your profile")
	}
	update, err := s.toUpdate(req)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return s.Get(ctx, userID)
	}

	p, err := s.store.UpdateProfile(ctx, userID, update)
	if err != nil {
		err = storeError(err)
		s.notify(ctx, notify.Failure(dErrors.CodeOf(err), MsgUpdateFailed))
		return nil, err
	}

	s.notify(ctx, notify.Success(MsgUpdated))
	audit.LogAudit(ctx, s.logger, s.emitter, audit.EventProfileUpdated,
		"user_id", userID.String(),
		"fields", strings.Join(changedFields(update), ","),
	)
	return p, nil
}

func (s *Service) toUpdate(req UpdateRequest) (models.Update, error) {
	var u models.Update
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if err := s.validate.Var(name, "max=50"); err != nil {
			return models.Update{}, dErrors.Wrap(err, dErrors.CodeValidation, "username must be at most 50 characters")
		}
		u.Username = &name
	}
	if req.AvatarURL != nil {
		avatar := strings.TrimSpace(*req.AvatarURL)
		if avatar != "" {
			if err := s.validate.Var(avatar, "url,max=2048"); err != nil {
				return models.Update{}, dErrors.Wrap(err, dErrors.CodeValidation, "avatar_url must be a valid URL")
			}
		}
		u.AvatarURL = &avatar
	}
	return u, nil
}

func (s *Service) notify(ctx context.Context, n notify.Notice) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}

// DisplayInitial is the avatar fallback letter: the first letter of the
// username, else of the email, else "U".
func DisplayInitial(p *models.Profile, email string) string {
	return pkgemail.Initial(usernameOf(p), email)
}

func usernameOf(p *models.Profile) string {
	if p == nil {
		return ""
	}
	return p.Username
}

func changedFields(u models.Update) []string {
	var fields []string
	if u.Username != nil {
		fields = append(fields, "username")
	}
	if u.AvatarURL != nil {
		fields = append(fields, "avatar_url")
	}
	return fields
}

func storeError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "profile not found")
	case errors.Is(err, sentinel.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodePersistenceTransient, "profile store unavailable, try again")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "profile store failure")
	}
}
