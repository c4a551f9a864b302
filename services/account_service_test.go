package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socaPassportAPI/internal/notification"
	"socaPassportAPI/internal/passport"
	"socaPassportAPI/internal/user"
)

func TestSyncUserFeedsLeaderboard(t *testing.T) {
	store := NewMemoryStore()
	accounts := NewAccountService(store)
	ctx := context.Background()

	err := accounts.SyncUser(ctx, user.ClerkUserData{ID: "user_a", FirstName: "Machel", LastName: "M", ImageURL: "https://img/a.png"})
	require.NoError(t, err)

	store.profiles["user_a"] = passport.NewProfile("user_a", time.Now())
	lb, err := store.Leaderboard(ctx, "user_a", 10)
	require.NoError(t, err)
	require.Len(t, lb.Entries, 1)
	assert.Equal(t, "Machel M", lb.Entries[0].DisplayName)
	require.NotNil(t, lb.Entries[0].ProfilePictureURL)
	assert.Equal(t, "https://img/a.png", *lb.Entries[0].ProfilePictureURL)
}

func TestSyncUserRequiresID(t *testing.T) {
	accounts := NewAccountService(NewMemoryStore())
	err := accounts.SyncUser(context.Background(), user.ClerkUserData{Username: "ghost"})
	assert.ErrorIs(t, err, passport.ErrValidation)
}

func TestDeleteUserRemovesPassport(t *testing.T) {
	svc, store := newTestService(t)
	accounts := NewAccountService(store)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "user_a", "TEST-001")
	require.NoError(t, err)
	require.NoError(t, store.SaveDevice(ctx, "user_a", notification.DeviceToken{Token: "tok-a-1", Platform: "ios"}))

	require.NoError(t, accounts.DeleteUser(ctx, "user_a"))

	_, err = store.GetProfile(ctx, "user_a")
	assert.ErrorIs(t, err, passport.ErrNotFound)
	devices, err := store.DevicesFor(ctx, "user_a")
	require.NoError(t, err)
	assert.Empty(t, devices)

	// the event's edition counter is not rolled back
	res, err := svc.CheckIn(ctx, "user_b", "TEST-001")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stamp.EditionNumber)
}
