package audit

import (
	"context"
	"log/slog"

	id "vaultspark/pkg/domain"
	"vaultspark/pkg/requestcontext"
)

// LogAudit logs an audit event to the structured logger and emits it to the
// audit emitter. Subject, reason and user are lifted from attrList by key
// ("user_id", "email", "reason").
func LogAudit(ctx context.Context, logger *slog.Logger, emitter Emitter, event AuditEvent, attrList ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}

	if logger != nil {
		args := append(attrList, "event", string(event), "log_type", "audit")
		logger.InfoContext(ctx, string(event), args...)
	}

	if emitter == nil {
		return
	}

	userID, _ := id.ParseUserID(stringAttr(attrList, "user_id"))
	if err := emitter.Emit(ctx, Event{
		Category:  event.Category(),
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		Subject:   extractSubject(attrList),
		Action:    string(event),
		Reason:    stringAttr(attrList, "reason"),
		Email:     stringAttr(attrList, "email"),
		RequestID: requestID,
	}); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}

func extractSubject(attrList []any) string {
	for _, key := range []string{"user_id", "wallet_address", "email"} {
		if val := stringAttr(attrList, key); val != "" {
			return val
		}
	}
	return ""
}

// stringAttr returns the string value following key in a slog-style
// key/value list, or "" when absent or not a string.
func stringAttr(kv []any, key string) string {
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok && k == key {
			if v, ok := kv[i+1].(string); ok {
				return v
			}
		}
	}
	return ""
}
