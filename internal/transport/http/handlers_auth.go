package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	profilemodels "vaultspark/internal/profile/models"
	"vaultspark/internal/session/models"
	dErrors "vaultspark/pkg/domain-errors"
	"vaultspark/pkg/platform/httputil"
	"vaultspark/pkg/requestcontext"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

type confirmRequest struct {
	Token string `json:"token" validate:"required"`
}

type sessionResponse struct {
	Status       models.Status          `json:"status"`
	Identity     *models.Identity       `json:"identity,omitempty"`
	ExpiresAt    *time.Time             `json:"expires_at,omitempty"`
	PendingEmail string                 `json:"pending_email,omitempty"`
	Cause        dErrors.Code           `json:"cause,omitempty"`
	Profile      *profilemodels.Profile `json:"profile,omitempty"`
}

type signUpResponse struct {
	ConfirmationPending bool            `json:"confirmation_pending"`
	Session             sessionResponse `json:"session"`
}

func toSessionResponse(snap models.Snapshot, profile *profilemodels.Profile) sessionResponse {
	resp := sessionResponse{
		Status:       snap.Status,
		PendingEmail: snap.PendingEmail,
		Cause:        snap.Cause,
	}
	if snap.Session != nil {
		ident := snap.Session.Identity
		resp.Identity = &ident
		if !snap.Session.ExpiresAt.IsZero() {
			exp := snap.Session.ExpiresAt
			resp.ExpiresAt = &exp
		}
		resp.Profile = profile
	}
	return resp
}

func (h *Handler) registerAuth(r chi.Router) {
	r.Post("/auth/sign-up", h.handleSignUp)
	r.Post("/auth/sign-in", h.handleSignIn)
	r.Post("/auth/sign-out", h.handleSignOut)
	r.Post("/auth/confirm", h.handleConfirm)
	r.Get("/session", h.handleSession)
}

func (h *Handler) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "email and password are required"))
		return req, false
	}
	return req, true
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}
	res, err := h.sessions.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logFailure(r, "sign-up failed", err)
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusCreated
	if res.ConfirmationPending {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, signUpResponse{
		ConfirmationPending: res.ConfirmationPending,
		Session:             toSessionResponse(h.sessions.State(), h.sessions.Profile()),
	})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}
	if err := h.sessions.SignIn(r.Context(), req.Email, req.Password); err != nil {
		h.logFailure(r, "sign-in failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(h.sessions.State(), h.sessions.Profile()))
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(r.Context()); err != nil {
		h.logFailure(r, "sign-out reported an error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if h.confirmer == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "email confirmation is not enabled"))
		return
	}
	var req confirmRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "token is required"))
		return
	}
	if err := h.confirmer.ConfirmEmail(r.Context(), req.Token); err != nil {
		h.logFailure(r, "email confirmation failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSession(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(h.sessions.State(), h.sessions.Profile()))
}

func (h *Handler) logFailure(r *http.Request, msg string, err error) {
	ctx := r.Context()
	attrs := []any{
		"code", string(dErrors.CodeOf(err)),
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal || dErrors.CodeOf(err) == "" {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.WarnContext(ctx, msg, attrs...)
}
