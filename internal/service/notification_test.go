package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threewloc-backend/internal/domain"
)

func TestNotificationService(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	repo := store.Repositories().Notifications
	svc := NewNotificationService(repo)

	userID, other := uuid.New(), uuid.New()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &domain.Notification{UserID: userID, Type: domain.NotificationBookingPaid, Title: "Booking paid"}))
	}
	require.NoError(t, repo.Create(ctx, &domain.Notification{UserID: other, Type: domain.NotificationBookingPaid}))

	t.Run("Pages Default To Twenty", func(t *testing.T) {
		notes, total, err := svc.GetNotifications(ctx, userID, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(3), total)
		assert.Len(t, notes, 3)
	})

	t.Run("Second Page", func(t *testing.T) {
		notes, total, err := svc.GetNotifications(ctx, userID, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, int32(3), total)
		assert.Len(t, notes, 1)
	})

	t.Run("MarkAsRead Checks Ownership", func(t *testing.T) {
		notes, _, err := svc.GetNotifications(ctx, userID, 1, 1)
		require.NoError(t, err)
		require.Len(t, notes, 1)

		assert.ErrorIs(t, svc.MarkAsRead(ctx, other, notes[0].ID), domain.ErrNotFound)
		require.NoError(t, svc.MarkAsRead(ctx, userID, notes[0].ID))
	})
}
