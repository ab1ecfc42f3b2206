package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/utils"
)

type stubFeed struct {
	subscribed []uuid.UUID
}

func (f *stubFeed) Subscribe(_ context.Context, equipmentID uuid.UUID, onChange func(domain.BookingChanged)) (func(), error) {
	f.subscribed = append(f.subscribed, equipmentID)
	onChange(domain.BookingChanged{EquipmentID: equipmentID, Status: domain.BookingStatusPaid})
	return func() {}, nil
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := utils.ParseDate(s)
	require.NoError(t, err)
	return v
}

func TestAvailabilityService(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	equipmentID := uuid.New()
	add := func(start, end string, status domain.BookingStatus) {
		b := domain.Booking{ID: uuid.New(), EquipmentID: equipmentID, StartDate: mustDate(t, start), EndDate: mustDate(t, end), Status: status}
		store.bookings[b.ID] = b
	}
	add("2025-03-10", "2025-03-12", domain.BookingStatusPaid)
	add("2025-03-13", "2025-03-13", domain.BookingStatusRequested)
	add("2025-03-15", "2025-03-20", domain.BookingStatusRefunded)
	add("2025-03-16", "2025-03-16", domain.BookingStatusOwnerApproved)

	svc := NewAvailabilityService(store.Repositories().Bookings, nil)

	t.Run("CheckDate", func(t *testing.T) {
		state, err := svc.CheckDate(ctx, equipmentID, mustDate(t, "2025-03-12"))
		require.NoError(t, err)
		assert.Equal(t, DateBooked, state)

		state, err = svc.CheckDate(ctx, equipmentID, mustDate(t, "2025-03-15"))
		require.NoError(t, err)
		assert.Equal(t, DateAvailable, state, "refunded bookings release their dates")
	})

	t.Run("HasOverlap", func(t *testing.T) {
		overlap, err := svc.HasOverlap(ctx, equipmentID, mustDate(t, "2025-03-05"), mustDate(t, "2025-03-10"))
		require.NoError(t, err)
		assert.True(t, overlap)

		overlap, err = svc.HasOverlap(ctx, equipmentID, mustDate(t, "2025-03-14"), mustDate(t, "2025-03-15"))
		require.NoError(t, err)
		assert.False(t, overlap)
	})

	t.Run("NextAvailableDate", func(t *testing.T) {
		next, err := svc.NextAvailableDate(ctx, equipmentID, mustDate(t, "2025-03-10"))
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, mustDate(t, "2025-03-14"), *next)

		next, err = svc.NextAvailableDate(ctx, equipmentID, mustDate(t, "2025-03-01"))
		require.NoError(t, err)
		assert.Equal(t, mustDate(t, "2025-03-01"), *next)
	})

	t.Run("NextAvailableDate Gives Up After A Year", func(t *testing.T) {
		long := newMemStore()
		b := domain.Booking{ID: uuid.New(), EquipmentID: equipmentID, StartDate: mustDate(t, "2025-01-01"),
			EndDate: mustDate(t, "2026-12-31"), Status: domain.BookingStatusOwnerApproved}
		long.bookings[b.ID] = b

		next, err := NewAvailabilityService(long.Repositories().Bookings, nil).NextAvailableDate(ctx, equipmentID, mustDate(t, "2025-03-01"))
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("BookedRanges", func(t *testing.T) {
		ranges, err := svc.BookedRanges(ctx, equipmentID, mustDate(t, "2025-03-13"))
		require.NoError(t, err)
		require.Len(t, ranges, 2)
		assert.Equal(t, mustDate(t, "2025-03-13"), ranges[0].StartDate)
		assert.Equal(t, domain.BookingStatusOwnerApproved, ranges[1].Status)
	})

	t.Run("Store Failure Fails Closed", func(t *testing.T) {
		broken := newMemStore()
		broken.listActiveErr = errors.New("timeout")
		failing := NewAvailabilityService(broken.Repositories().Bookings, nil)

		state, err := failing.CheckDate(ctx, equipmentID, mustDate(t, "2025-03-01"))
		assert.Error(t, err)
		assert.Equal(t, DateUnknown, state)

		booked, err := failing.IsDateBooked(ctx, equipmentID, mustDate(t, "2025-03-01"))
		assert.Error(t, err)
		assert.True(t, booked)

		overlap, err := failing.HasOverlap(ctx, equipmentID, mustDate(t, "2025-03-01"), mustDate(t, "2025-03-02"))
		assert.Error(t, err)
		assert.True(t, overlap)

		next, err := failing.NextAvailableDate(ctx, equipmentID, mustDate(t, "2025-03-01"))
		assert.Error(t, err)
		assert.Nil(t, next)
	})

	t.Run("Subscribe", func(t *testing.T) {
		unsubscribe, err := svc.Subscribe(ctx, equipmentID, func(domain.BookingChanged) {})
		assert.ErrorIs(t, err, domain.ErrChangeFeedUnavailable)
		assert.NotNil(t, unsubscribe)

		feed := &stubFeed{}
		var got []domain.BookingChanged
		_, err = NewAvailabilityService(store.Repositories().Bookings, feed).Subscribe(ctx, equipmentID, func(e domain.BookingChanged) {
			got = append(got, e)
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{equipmentID}, feed.subscribed)
		assert.Len(t, got, 1)
	})
}
