package http

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
)

type paymentStatusResponse struct {
	Reference string              `json:"reference"`
	Status    domain.ChargeStatus `json:"status"`
}

// PaymentCallback is public. The body is untrusted: the service only uses it
// to find the payment and then asks the provider for the real status.
func (h *Handler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	provider := domain.PaymentProvider(mux.Vars(r)["provider"])
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "unreadable body")
		return
	}
	p, err := h.Payments.HandleCallback(r.Context(), provider, body)
	if err != nil {
		logger.Warn("Payment callback rejected", "provider", provider, "error", err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentStatusResponse{Reference: p.Reference, Status: p.Status})
}

// SandboxCheckout stands in for a provider's hosted page.
func (h *Handler) SandboxCheckout(w http.ResponseWriter, r *http.Request) {
	reference := mux.Vars(r)["reference"]
	writeJSON(w, http.StatusOK, map[string]any{
		"reference": reference,
		"actions":   []string{"POST ?outcome=paid", "POST ?outcome=declined"},
	})
}

// SandboxComplete settles or declines a sandbox charge and verifies it right
// away, like a provider redirect followed by a callback. Only the payer may
// complete their own checkout.
func (h *Handler) SandboxComplete(w http.ResponseWriter, r *http.Request) {
	reference := mux.Vars(r)["reference"]
	outcome := r.URL.Query().Get("outcome")
	if outcome != "" && outcome != "paid" && outcome != "declined" {
		writeMessage(w, http.StatusBadRequest, "outcome must be paid or declined")
		return
	}
	if _, err := h.Payments.GetPayment(r.Context(), caller(r), reference); err != nil {
		writeError(w, r, err)
		return
	}

	var err error
	if outcome == "declined" {
		err = h.Sandbox.Decline(reference)
	} else {
		err = h.Sandbox.Settle(reference)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.Payments.VerifyPayment(r.Context(), reference)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentStatusResponse{Reference: p.Reference, Status: p.Status})
}
