// Package domain holds identifier types shared across packages.
//
// Each identifier wraps a UUID in its own named type so a user id can never be
// passed where a transaction id is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "vaultspark/pkg/domain-errors"
)

type (
	UserID        uuid.UUID
	SessionID     uuid.UUID
	TransactionID uuid.UUID
)

// ParseUserID parses s as a user id. Empty, malformed and nil UUIDs are rejected.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session_id")
	return SessionID(u), err
}

func ParseTransactionID(s string) (TransactionID, error) {
	u, err := parseUUID(s, "transaction_id")
	return TransactionID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be nil")
	}
	return u, nil
}

func NewUserID() UserID               { return UserID(uuid.New()) }
func NewSessionID() SessionID         { return SessionID(uuid.New()) }
func NewTransactionID() TransactionID { return TransactionID(uuid.New()) }

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id SessionID) String() string     { return uuid.UUID(id).String() }
func (id TransactionID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether id is the zero value. A nil user id means "no user".
func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id TransactionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id SessionID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id TransactionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText accepts an empty string as the nil id so exported rows with a
// missing id still decode.
func (id *UserID) UnmarshalText(b []byte) error {
	return unmarshalUUID((*uuid.UUID)(id), b)
}

func (id *SessionID) UnmarshalText(b []byte) error {
	return unmarshalUUID((*uuid.UUID)(id), b)
}

func (id *TransactionID) UnmarshalText(b []byte) error {
	return unmarshalUUID((*uuid.UUID)(id), b)
}

func unmarshalUUID(dst *uuid.UUID, b []byte) error {
	if len(b) == 0 {
		*dst = uuid.Nil
		return nil
	}
	return dst.UnmarshalText(b)
}
