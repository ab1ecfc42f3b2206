package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
)

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// transitionHooks runs the side effects of a committed booking transition.
// Neither the publisher nor the notifier can fail the transition.
type transitionHooks struct {
	notifier  Notifier
	publisher EventPublisher
}

func (h transitionHooks) published(ctx context.Context, b *domain.Booking) {
	if h.publisher == nil {
		return
	}
	event := domain.BookingChanged{
		BookingID:     b.ID,
		EquipmentID:   b.EquipmentID,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		OccurredAt:    now(),
	}
	if err := h.publisher.PublishBookingChanged(ctx, event); err != nil {
		logger.Warn("Failed to publish booking change", "bookingID", b.ID, "status", b.Status, "error", err)
	}
}

func (h transitionHooks) notify(ctx context.Context, userID uuid.UUID, kind domain.NotificationType, title, message string, bookingID uuid.UUID) {
	if h.notifier == nil {
		return
	}
	id := bookingID
	h.notifier.Notify(ctx, userID, kind, title, message, &id)
}

func (h transitionHooks) captured(ctx context.Context, b *domain.Booking) {
	h.published(ctx, b)
	h.notify(ctx, b.OwnerID, domain.NotificationBookingPaid, "Booking paid",
		"A booking was paid and is waiting for your approval", b.ID)
}
