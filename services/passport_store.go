package services

import (
	"context"

	"socaPassportAPI/internal/leaderboard"
	"socaPassportAPI/internal/notification"
	"socaPassportAPI/internal/passport"
	"socaPassportAPI/internal/user"
)

// PassportStore persists profiles and stamps.
//
// ReserveEdition and ApplyCheckin are separate atomic units: the first is
// keyed by event and the second by user, and neither is held while the other
// runs.
type PassportStore interface {
	HasStamp(ctx context.Context, userID, eventID string) (bool, error)
	ReserveEdition(ctx context.Context, eventID string) (int, error)

	// ApplyCheckin loads (or creates) the user's profile under an exclusive
	// lock, lets apply mutate it and the stamp, then writes both. It returns
	// passport.ErrAlreadyCheckedIn if a stamp for the same event appeared
	// since HasStamp. Nothing is written when apply fails.
	ApplyCheckin(ctx context.Context, stamp *passport.Stamp, apply func(p *passport.Profile) error) (*passport.Profile, error)

	GetProfile(ctx context.Context, userID string) (*passport.Profile, error)
	ListStamps(ctx context.Context, userID string, q passport.StampQuery) ([]*passport.Stamp, error)
	ToggleFavorite(ctx context.Context, userID, stampID string) (*passport.Stamp, error)
	Leaderboard(ctx context.Context, userID string, limit int) (*leaderboard.Leaderboard, error)
}

type DeviceStore interface {
	SaveDevice(ctx context.Context, userID string, device notification.DeviceToken) error
	DevicesFor(ctx context.Context, userID string) ([]notification.DeviceToken, error)
	RemoveDevice(ctx context.Context, token string) error
}

type AccountStore interface {
	UpsertUser(ctx context.Context, u *user.User) error
	// DeleteUser removes the user's passport and everything keyed by it.
	DeleteUser(ctx context.Context, userID string) error
}

// EventRegistry resolves an access code to an active event.
// It returns passport.ErrNotFound for unknown or inactive codes.
type EventRegistry interface {
	Resolve(ctx context.Context, accessCode string) (passport.Event, error)
}
