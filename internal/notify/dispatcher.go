// Package notify delivers user notifications: every notification is stored,
// then handed to the configured delivery sinks.
package notify

import (
	"context"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/repository"
)

// Sink delivers a stored notification over one channel. user may be nil when
// the profile could not be loaded.
type Sink interface {
	Name() string
	Send(ctx context.Context, user *domain.User, n *domain.Notification) error
}

// Dispatcher implements service.Notifier. Delivery is best effort: errors are
// logged and never returned to the caller.
type Dispatcher struct {
	notes repository.NotificationRepository
	users repository.UserRepository
	sinks []Sink
}

func NewDispatcher(notes repository.NotificationRepository, users repository.UserRepository, sinks ...Sink) *Dispatcher {
	return &Dispatcher{notes: notes, users: users, sinks: sinks}
}

func (d *Dispatcher) Notify(ctx context.Context, userID uuid.UUID, kind domain.NotificationType, title, message string, bookingID *uuid.UUID) {
	n := &domain.Notification{
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		BookingID: bookingID,
	}
	if err := d.notes.Create(ctx, n); err != nil {
		logger.Error("Failed to store notification", "userID", userID, "type", kind, "error", err)
	}
	if len(d.sinks) == 0 {
		return
	}

	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("Notification recipient profile unavailable", "userID", userID, "error", err)
		user = nil
	}
	for _, s := range d.sinks {
		if err := s.Send(ctx, user, n); err != nil {
			logger.Warn("Notification delivery failed", "sink", s.Name(), "userID", userID, "type", kind, "error", err)
		}
	}
}
