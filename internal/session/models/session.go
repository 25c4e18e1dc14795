package models

import (
	"time"

	id "vaultspark/pkg/domain"
	dErrors "vaultspark/pkg/domain-errors"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusUnauthenticated      Status = "unauthenticated"
	StatusAuthenticating       Status = "authenticating"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusAuthenticated        Status = "authenticated"
	StatusError                Status = "error"
)

// Identity is issued by the identity provider and never changes afterwards.
type Identity struct {
	UserID id.UserID `json:"user_id"`
	Email  string    `json:"email"`
}

// Session is a signed-in identity plus the provider's access token.
type Session struct {
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	Identity     Identity  `json:"identity"`
}

// Expired reports whether the session has passed its expiry at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Snapshot is an immutable view of the manager's state delivered to
// observers. Seq increases with every transition.
type Snapshot struct {
	Seq          uint64
	Status       Status
	Session      *Session
	PendingEmail string
	Cause        dErrors.Code
}

// Identity returns the signed-in identity, if any.
func (s Snapshot) Identity() (Identity, bool) {
	if s.Session == nil {
		return Identity{}, false
	}
	return s.Session.Identity, true
}

// IsAuthenticated reports whether the snapshot carries a live session.
func (s Snapshot) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.Session != nil
}

// SameLogicalState reports whether two snapshots describe the same state
// from an observer's point of view, ignoring Seq.
func (s Snapshot) SameLogicalState(o Snapshot) bool {
	if s.Status != o.Status || s.PendingEmail != o.PendingEmail || s.Cause != o.Cause {
		return false
	}
	if (s.Session == nil) != (o.Session == nil) {
		return false
	}
	if s.Session == nil {
		return true
	}
	return s.Session.Identity == o.Session.Identity &&
		s.Session.AccessToken == o.Session.AccessToken
}

// EventKind classifies identity provider notifications.
type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
)

// ProviderEvent is an asynchronous notification from the identity provider.
// For EventSignedOut, Session is the session that ended; a nil Session ends
// whatever session is current.
type ProviderEvent struct {
	Kind    EventKind
	Session *Session
}

// SignUpResult is the provider's answer to a sign-up. Session is nil when
// ConfirmationPending is set.
type SignUpResult struct {
	Session             *Session
	ConfirmationPending bool
}
