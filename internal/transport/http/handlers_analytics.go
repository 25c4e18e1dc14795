package httptransport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	ledgermodels "vaultspark/internal/ledger/models"
	dErrors "vaultspark/pkg/domain-errors"
	"vaultspark/pkg/platform/httputil"
	"vaultspark/pkg/requestcontext"
)

const maxRecentTransactions = 100

func (h *Handler) registerAnalytics(r chi.Router) {
	r.Get("/portfolio", h.handlePortfolio)
	r.Get("/transactions/recent", h.handleRecentTransactions)
	r.Get("/admin/analytics", h.handlePlatformAnalytics)
}

func (h *Handler) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.analytics.Portfolio(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logFailure(r, "portfolio failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRecentTransactions {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 100"))
			return
		}
		limit = n
	}
	txs, err := h.analytics.RecentTransactions(ctx, requestcontext.UserID(ctx), limit)
	if err != nil {
		h.logFailure(r, "recent transactions failed", err)
		httputil.WriteError(w, err)
		return
	}
	if txs == nil {
		txs = []ledgermodels.Transaction{}
	}
	httputil.WriteJSON(w, http.StatusOK, struct {
		Transactions []ledgermodels.Transaction `json:"transactions"`
	}{Transactions: txs})
}

func (h *Handler) handlePlatformAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.analytics.Platform(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logFailure(r, "platform analytics failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
