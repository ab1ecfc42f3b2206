package http

import (
	"net/http"

	"threewloc-backend/internal/domain"
)

// GetWallet creates the wallet on first access.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.Wallets.EnsureWallet(r.Context(), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *Handler) ListWalletTransactions(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	items, total, err := h.Wallets.ListTransactions(r.Context(), caller(r), page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse[domain.WalletTransaction]{Items: items, TotalCount: total, Page: page, PageSize: pageSize})
}

func (h *Handler) StartWalletRecharge(w http.ResponseWriter, r *http.Request) {
	var req rechargeRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	checkout, err := h.Payments.StartWalletRecharge(r.Context(), caller(r), req.Amount, h.provider(req.Provider))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkout)
}
