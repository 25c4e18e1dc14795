package middleware

import (
	"log/slog"
	"net/http"

	"vaultspark/internal/session/models"
	dErrors "vaultspark/pkg/domain-errors"
	"vaultspark/pkg/platform/httputil"
	"vaultspark/pkg/requestcontext"
)

// SessionReader exposes the daemon's current session.
type SessionReader interface {
	State() models.Snapshot
}

// RequireSession rejects requests while no session is authenticated and
// otherwise puts the signed-in identity into the request context.
func RequireSession(sessions SessionReader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			snap := sessions.State()
			if !snap.IsAuthenticated() {
				logger.WarnContext(ctx, "unauthorized access - no active session",
					"status", string(snap.Status),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "sign in first"))
				return
			}
			ident := snap.Session.Identity
			ctx = requestcontext.WithUserID(ctx, ident.UserID)
			ctx = requestcontext.WithEmail(ctx, ident.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
