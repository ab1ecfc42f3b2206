package events

import (
	"context"
	"errors"

	"threewloc-backend/internal/domain"
)

type Publisher interface {
	PublishBookingChanged(ctx context.Context, event domain.BookingChanged) error
}

// MultiPublisher publishes to every target and joins their errors.
type MultiPublisher []Publisher

func (m MultiPublisher) PublishBookingChanged(ctx context.Context, event domain.BookingChanged) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishBookingChanged(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
