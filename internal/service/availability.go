package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
	"threewloc-backend/internal/repository"
	"threewloc-backend/internal/utils"
)

// maxAvailabilityScan bounds NextAvailableDate to one year of days.
const maxAvailabilityScan = 365

type availabilityService struct {
	bookingRepo repository.BookingRepository
	feed        ChangeFeed
}

// NewAvailabilityService re-reads active bookings on every call. feed may be
// nil, in which case Subscribe reports ErrChangeFeedUnavailable.
func NewAvailabilityService(bookingRepo repository.BookingRepository, feed ChangeFeed) AvailabilityService {
	return &availabilityService{bookingRepo: bookingRepo, feed: feed}
}

func (s *availabilityService) active(ctx context.Context, equipmentID uuid.UUID, from time.Time) ([]domain.Booking, error) {
	bookings, err := s.bookingRepo.ListActiveByEquipment(ctx, equipmentID, utils.TruncateDay(from))
	if err != nil {
		logger.Warn("Availability lookup failed, treating dates as blocked", "equipmentID", equipmentID, "error", err)
		return nil, err
	}
	return bookings, nil
}

func (s *availabilityService) CheckDate(ctx context.Context, equipmentID uuid.UUID, date time.Time) (DateState, error) {
	booked, err := s.IsDateBooked(ctx, equipmentID, date)
	if err != nil {
		return DateUnknown, err
	}
	if booked {
		return DateBooked, nil
	}
	return DateAvailable, nil
}

func (s *availabilityService) IsDateBooked(ctx context.Context, equipmentID uuid.UUID, date time.Time) (bool, error) {
	date = utils.TruncateDay(date)
	bookings, err := s.active(ctx, equipmentID, date)
	if err != nil {
		return true, err
	}
	for i := range bookings {
		if bookings[i].Covers(date) {
			return true, nil
		}
	}
	return false, nil
}

func (s *availabilityService) HasOverlap(ctx context.Context, equipmentID uuid.UUID, start, end time.Time) (bool, error) {
	start, end = utils.TruncateDay(start), utils.TruncateDay(end)
	bookings, err := s.active(ctx, equipmentID, start)
	if err != nil {
		return true, err
	}
	for i := range bookings {
		if bookings[i].Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (s *availabilityService) NextAvailableDate(ctx context.Context, equipmentID uuid.UUID, from time.Time) (*time.Time, error) {
	from = utils.TruncateDay(from)
	bookings, err := s.active(ctx, equipmentID, from)
	if err != nil {
		return nil, err
	}

	day := from
	for i := 0; i < maxAvailabilityScan; i++ {
		booked := false
		for j := range bookings {
			if bookings[j].Covers(day) {
				booked = true
				break
			}
		}
		if !booked {
			found := day
			return &found, nil
		}
		day = day.AddDate(0, 0, 1)
	}
	return nil, nil
}

func (s *availabilityService) BookedRanges(ctx context.Context, equipmentID uuid.UUID, from time.Time) ([]DateRange, error) {
	bookings, err := s.active(ctx, equipmentID, from)
	if err != nil {
		return nil, err
	}
	ranges := make([]DateRange, 0, len(bookings))
	for _, b := range bookings {
		ranges = append(ranges, DateRange{BookingID: b.ID, StartDate: b.StartDate, EndDate: b.EndDate, Status: b.Status})
	}
	return ranges, nil
}

func (s *availabilityService) Subscribe(ctx context.Context, equipmentID uuid.UUID, onChange func(domain.BookingChanged)) (func(), error) {
	if s.feed == nil {
		return func() {}, domain.ErrChangeFeedUnavailable
	}
	return s.feed.Subscribe(ctx, equipmentID, onChange)
}
