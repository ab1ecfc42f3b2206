package http

import (
	"net/http"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
)

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	equipmentID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	quote, err := h.Bookings.Quote(r.Context(), equipmentID, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.CreateBooking(r.Context(), caller(r), uuid.MustParse(req.EquipmentID), req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.GetBooking(r.Context(), caller(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ListBookings lists the caller's rentals, or their lendings with ?role=owner.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	status := r.URL.Query().Get("status")

	list := h.Bookings.ListRentals
	if r.URL.Query().Get("role") == "owner" {
		list = h.Bookings.ListLendings
	}
	items, total, err := list(r.Context(), caller(r), status, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse[domain.Booking]{Items: items, TotalCount: total, Page: page, PageSize: pageSize})
}

func (h *Handler) PayWithWallet(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.PayWithWallet(r.Context(), caller(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) StartBookingCheckout(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req checkoutRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	checkout, err := h.Payments.StartBookingCheckout(r.Context(), caller(r), id, h.provider(req.Provider))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkout)
}

func (h *Handler) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.OwnerApprove(r.Context(), caller(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req rejectBookingRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.OwnerReject(r.Context(), caller(r), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) FinalizeBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req finalizeBookingRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.Finalize(r.Context(), caller(r), id, req.Condition, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
