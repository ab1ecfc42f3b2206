package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type pageResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int32 `json:"total_count"`
	Page       int32 `json:"page"`
	PageSize   int32 `json:"page_size"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps domain errors to HTTP statuses. Provider and store details
// are logged, never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		conflict  *domain.DateConflictError
		funds     *domain.InsufficientFundsError
		gateway   *domain.PaymentGatewayError
		invariant *domain.InvariantViolationError
		invalid   validator.ValidationErrors
	)
	switch {
	case errors.As(err, &invalid):
		writeMessage(w, http.StatusBadRequest, invalid.Error())
	case errors.As(err, &conflict):
		writeMessage(w, http.StatusConflict, conflict.Error())
	case errors.As(err, &funds):
		writeMessage(w, http.StatusPaymentRequired, "insufficient wallet balance")
	case errors.As(err, &gateway):
		logger.Error("Payment provider call failed", "path", r.URL.Path, "provider", gateway.Provider,
			"operation", gateway.Operation, "status", gateway.StatusCode, "error", gateway.Err)
		writeMessage(w, http.StatusBadGateway, "payment provider unavailable, try again later")
	case errors.As(err, &invariant), errors.Is(err, domain.ErrWalletFrozen):
		writeMessage(w, http.StatusLocked, "wallet is locked pending review")
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrBelowMinimum), errors.Is(err, domain.ErrUnknownProvider):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrProviderTransactionInUse):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		writeMessage(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrChangeFeedUnavailable):
		writeMessage(w, http.StatusServiceUnavailable, err.Error())
	default:
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// decode reads a JSON body into dst and validates its tags.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(domain.ErrInvalidInput, err)
	}
	return h.validate.Struct(dst)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, errors.Join(domain.ErrInvalidInput, err)
	}
	return id, nil
}

func pagination(r *http.Request) (page, pageSize int32) {
	q := r.URL.Query()
	p, _ := strconv.Atoi(q.Get("page"))
	ps, _ := strconv.Atoi(q.Get("page_size"))
	return int32(p), int32(ps)
}

func (h *Handler) provider(requested domain.PaymentProvider) domain.PaymentProvider {
	if requested == "" {
		return domain.PaymentProvider(h.DefaultProvider)
	}
	return requested
}

func caller(r *http.Request) uuid.UUID {
	id, _ := userIDFromContext(r.Context())
	return id
}
