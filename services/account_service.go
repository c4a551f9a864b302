package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"socaPassportAPI/internal/passport"
	"socaPassportAPI/internal/user"
)

// AccountService mirrors Clerk identities into the passport tables.
type AccountService struct {
	store AccountStore
}

func NewAccountService(store AccountStore) *AccountService {
	return &AccountService{store: store}
}

func (s *AccountService) SyncUser(ctx context.Context, data user.ClerkUserData) error {
	if data.ID == "" {
		return fmt.Errorf("clerk user without id: %w", passport.ErrValidation)
	}
	if err := s.store.UpsertUser(ctx, data.ToUser()); err != nil {
		return passport.Classify(err, "failed to sync user")
	}
	zap.L().Info("synced user", zap.String("user_id", data.ID))
	return nil
}

func (s *AccountService) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("clerk user without id: %w", passport.ErrValidation)
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return passport.Classify(err, "failed to delete user")
	}
	zap.L().Info("deleted user passport", zap.String("user_id", userID))
	return nil
}
