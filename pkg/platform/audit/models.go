package audit

import (
	"context"
	"time"

	id "vaultspark/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// route and retain them differently.
type EventCategory string

const (
	// CategorySecurity covers authentication failures and anything worth alerting on.
	CategorySecurity EventCategory = "security"

	// CategoryAccount covers changes to what a user owns: profile edits and
	// wallet links.
	CategoryAccount EventCategory = "account"

	// CategoryOperations covers routine session activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	UserID    id.UserID     `json:"user_id"`
	Subject   string        `json:"subject,omitempty"`
	Action    string        `json:"action"`
	Reason    string        `json:"reason,omitempty"`
	Email     string        `json:"email,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	EventSessionStarted       AuditEvent = "session_started"
	EventSessionEnded         AuditEvent = "session_ended"
	EventSessionExpired       AuditEvent = "session_expired"
	EventTokenRefreshed       AuditEvent = "token_refreshed"
	EventAuthFailed           AuditEvent = "auth_failed"
	EventUserRegistered       AuditEvent = "user_registered"
	EventEmailConfirmed       AuditEvent = "email_confirmed"
	EventWalletLinked         AuditEvent = "wallet_linked"
	EventWalletLinkFailed     AuditEvent = "wallet_link_failed"
	EventProfileUpdated       AuditEvent = "profile_updated"
	EventAdminAnalyticsViewed AuditEvent = "admin_analytics_viewed"
	EventAdminAccessDenied    AuditEvent = "admin_access_denied"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAuthFailed:           CategorySecurity,
	EventAdminAccessDenied:    CategorySecurity,
	EventAdminAnalyticsViewed: CategorySecurity,

	EventUserRegistered:   CategoryAccount,
	EventEmailConfirmed:   CategoryAccount,
	EventWalletLinked:     CategoryAccount,
	EventWalletLinkFailed: CategoryAccount,
	EventProfileUpdated:   CategoryAccount,

	EventSessionStarted: CategoryOperations,
	EventSessionEnded:   CategoryOperations,
	EventSessionExpired: CategoryOperations,
	EventTokenRefreshed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is the narrow interface domain packages depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
