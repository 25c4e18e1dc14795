package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	profilemodels "vaultspark/internal/profile/models"
	profileservice "vaultspark/internal/profile/service"
	"vaultspark/pkg/platform/httputil"
	"vaultspark/pkg/requestcontext"
)

type profileRequest struct {
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type profileResponse struct {
	*profilemodels.Profile
	Email          string `json:"email"`
	DisplayInitial string `json:"display_initial"`
}

func (h *Handler) registerProfile(r chi.Router) {
	r.Get("/profile", h.handleGetProfile)
	r.Patch("/profile", h.handleUpdateProfile)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.profiles.Get(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logFailure(r, "profile lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	h.writeProfile(w, r, p)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req profileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.profiles.Update(ctx, requestcontext.UserID(ctx), profileservice.UpdateRequest{
		Username:  req.Username,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		h.logFailure(r, "profile update failed", err)
		httputil.WriteError(w, err)
		return
	}
	h.writeProfile(w, r, p)
}

func (h *Handler) writeProfile(w http.ResponseWriter, r *http.Request, p *profilemodels.Profile) {
	email := requestcontext.Email(r.Context())
	httputil.WriteJSON(w, http.StatusOK, profileResponse{
		Profile:        p,
		Email:          email,
		DisplayInitial: profileservice.DisplayInitial(p, email),
	})
}
