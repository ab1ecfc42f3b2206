package http

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"threewloc-backend/internal/security"
	"threewloc-backend/internal/service"
)

// SandboxController drives the in-process payment provider. It is only wired
// when the sandbox provider is enabled.
type SandboxController interface {
	Settle(reference string) error
	Decline(reference string) error
}

type Deps struct {
	Bookings      service.BookingService
	Payments      service.PaymentService
	Wallets       service.WalletService
	Availability  service.AvailabilityService
	Notifications service.NotificationService
	Tokens        security.TokenManager
	Sandbox       SandboxController
	// DefaultProvider is used when a checkout request names none.
	DefaultProvider string
}

type Handler struct {
	Deps
	validate *validator.Validate
}

func NewHandler(deps Deps) *Handler {
	return &Handler{Deps: deps, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// NewRouter registers every route. Security levels per route live in
// config.EndpointSecurityConfig.
func NewRouter(deps Deps) *mux.Router {
	h := NewHandler(deps)
	r := mux.NewRouter()
	r.Use(recoverMiddleware, logMiddleware, authMiddleware(deps.Tokens))

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/equipment/{id}/quote", h.Quote).Methods(http.MethodGet)
	v1.HandleFunc("/equipment/{id}/availability", h.GetAvailability).Methods(http.MethodGet)
	v1.HandleFunc("/equipment/{id}/availability/stream", h.AvailabilityStream).Methods(http.MethodGet)

	v1.HandleFunc("/bookings", h.CreateBooking).Methods(http.MethodPost)
	v1.HandleFunc("/bookings", h.ListBookings).Methods(http.MethodGet)
	v1.HandleFunc("/bookings/{id}", h.GetBooking).Methods(http.MethodGet)
	v1.HandleFunc("/bookings/{id}/pay/wallet", h.PayWithWallet).Methods(http.MethodPost)
	v1.HandleFunc("/bookings/{id}/checkout", h.StartBookingCheckout).Methods(http.MethodPost)
	v1.HandleFunc("/bookings/{id}/approve", h.ApproveBooking).Methods(http.MethodPost)
	v1.HandleFunc("/bookings/{id}/reject", h.RejectBooking).Methods(http.MethodPost)
	v1.HandleFunc("/bookings/{id}/finalize", h.FinalizeBooking).Methods(http.MethodPost)

	v1.HandleFunc("/wallet", h.GetWallet).Methods(http.MethodGet)
	v1.HandleFunc("/wallet/transactions", h.ListWalletTransactions).Methods(http.MethodGet)
	v1.HandleFunc("/wallet/recharge", h.StartWalletRecharge).Methods(http.MethodPost)

	v1.HandleFunc("/payments/callback/{provider}", h.PaymentCallback).Methods(http.MethodPost)

	v1.HandleFunc("/notifications", h.ListNotifications).Methods(http.MethodGet)
	v1.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods(http.MethodPost)

	if deps.Sandbox != nil {
		r.HandleFunc("/sandbox/checkout/{reference}", h.SandboxCheckout).Methods(http.MethodGet)
		r.HandleFunc("/sandbox/checkout/{reference}", h.SandboxComplete).Methods(http.MethodPost)
	}

	return r
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
