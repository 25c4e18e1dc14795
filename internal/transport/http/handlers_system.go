package httptransport

import (
	"net/http"
	"sort"
	"strconv"

	"vaultspark/internal/notify"
	dErrors "vaultspark/pkg/domain-errors"
	"vaultspark/pkg/platform/httputil"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.health))
	for name := range h.health {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := h.health[name](r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "health check failed", "check", name, "error", err)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}

func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if raw := r.URL.Query().Get("after"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "after must be a notice id"))
			return
		}
		after = n
	}
	notices := h.notices.List(after)
	if notices == nil {
		notices = []notify.Notice{}
	}
	httputil.WriteJSON(w, http.StatusOK, struct {
		Notices []notify.Notice `json:"notices"`
	}{Notices: notices})
}
