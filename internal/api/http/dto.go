package http

import "threewloc-backend/internal/domain"

type createBookingRequest struct {
	EquipmentID string `json:"equipment_id" validate:"required,uuid"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type checkoutRequest struct {
	Provider domain.PaymentProvider `json:"provider"`
}

type rejectBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type finalizeBookingRequest struct {
	Condition domain.ReturnCondition `json:"condition" validate:"required,oneof=good damaged"`
	Notes     string                 `json:"notes" validate:"max=2000"`
}

type rechargeRequest struct {
	Amount   int64                  `json:"amount" validate:"required,gt=0"`
	Provider domain.PaymentProvider `json:"provider"`
}

type availabilityResponse struct {
	Date          string        `json:"date,omitempty"`
	State         string        `json:"state,omitempty"`
	NextAvailable string        `json:"next_available,omitempty"`
	Booked        []bookedRange `json:"booked"`
}

type bookedRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}
