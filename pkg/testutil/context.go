package testutil

import (
	"net/http"
	"time"

	id "vaultspark/pkg/domain"
	"vaultspark/pkg/requestcontext"
)

// WithIdentity adds a user ID and email to the request context, as the
// session middleware does for signed-in requests.
func WithIdentity(req *http.Request, userID id.UserID, email string) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithEmail(ctx, email)
	return req.WithContext(ctx)
}

// WithTime pins the request time seen by handlers and services.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
