package httptransport

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vaultspark/internal/wallet"
	dErrors "vaultspark/pkg/domain-errors"
	"vaultspark/pkg/platform/httputil"
)

type walletResponse struct {
	Address      string `json:"address,omitempty"`
	ShortAddress string `json:"short_address,omitempty"`
	Connected    bool   `json:"connected"`
	Persisted    bool   `json:"persisted"`
}

func toWalletResponse(c wallet.Connection) walletResponse {
	resp := walletResponse{
		Address:   c.Address,
		Connected: c.Connected,
		Persisted: c.Persisted,
	}
	if c.Address != "" {
		resp.ShortAddress = wallet.ShortAddress(c.Address)
	}
	return resp
}

func (h *Handler) registerWallet(r chi.Router) {
	r.Get("/wallet", h.handleGetWallet)
	r.Post("/wallet/connect", h.handleConnectWallet)
}

func (h *Handler) handleGetWallet(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toWalletResponse(h.wallet.Connection()))
}

// handleConnectWallet reports a persistence failure together with the local
// connection, since the wallet stays connected when the profile write fails.
func (h *Handler) handleConnectWallet(w http.ResponseWriter, r *http.Request) {
	conn, err := h.wallet.ConnectWallet(r.Context())
	if err == nil {
		httputil.WriteJSON(w, http.StatusOK, toWalletResponse(conn))
		return
	}
	h.logFailure(r, "wallet connect failed", err)
	var de *dErrors.Error
	if dErrors.IsPersistenceError(err) && conn.Connected && errors.As(err, &de) {
		httputil.WriteJSON(w, httputil.StatusFor(de.Code), struct {
			Error            dErrors.Code   `json:"error"`
			ErrorDescription string         `json:"error_description"`
			Wallet           walletResponse `json:"wallet"`
		}{
			Error:            de.Code,
			ErrorDescription: de.Message,
			Wallet:           toWalletResponse(conn),
		})
		return
	}
	httputil.WriteError(w, err)
}
