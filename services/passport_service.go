package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"socaPassportAPI/internal/achievement"
	"socaPassportAPI/internal/leaderboard"
	"socaPassportAPI/internal/metrics"
	"socaPassportAPI/internal/notification"
	"socaPassportAPI/internal/passport"
	"socaPassportAPI/internal/progression"
)

// Notifier accepts progression notifications without blocking.
type Notifier interface {
	Enqueue(n *notification.Notification) bool
}

type CheckinResult struct {
	Stamp           *passport.Stamp           `json:"stamp"`
	CreditsEarned   int                       `json:"creditsEarned"`
	BonusCredits    int                       `json:"bonusCredits"`
	NewAchievements []achievement.Achievement `json:"newAchievements"`
	TierChanged     bool                      `json:"tierChanged"`
	NewTier         *passport.Tier            `json:"newTier"`
}

type ProfileResponse struct {
	Profile      *passport.Profile                   `json:"profile"`
	TierProgress passport.TierProgress               `json:"tierProgress"`
	Achievements []achievement.AchievementWithStatus `json:"achievements"`
}

type PassportService struct {
	store    PassportStore
	devices  DeviceStore
	events   EventRegistry
	rules    progression.Rules
	notifier Notifier
	now      func() time.Time
	newID    func() string
}

func NewPassportService(store PassportStore, devices DeviceStore, events EventRegistry) *PassportService {
	return &PassportService{
		store:   store,
		devices: devices,
		events:  events,
		rules:   progression.DefaultRules(),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// SetNotifier enables push notifications for rank-ups and unlocks.
func (s *PassportService) SetNotifier(n Notifier) {
	s.notifier = n
}

// CheckIn claims a stamp for the event behind accessCode.
//
// The edition is reserved before the profile transaction starts. If the
// transaction then loses a duplicate race, or the process dies in between,
// that edition number is never issued.
func (s *PassportService) CheckIn(ctx context.Context, userID, accessCode string) (res *CheckinResult, err error) {
	start := time.Now()
	defer func() {
		metrics.CheckinDuration.Observe(time.Since(start).Seconds())
		metrics.CheckinsTotal.WithLabelValues(checkinOutcome(err)).Inc()
	}()

	if userID == "" {
		return nil, fmt.Errorf("missing user id: %w", passport.ErrValidation)
	}
	code, err := passport.NormalizeAccessCode(accessCode)
	if err != nil {
		return nil, err
	}

	ev, err := s.events.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	dup, err := s.store.HasStamp(ctx, userID, ev.ID)
	if err != nil {
		return nil, passport.Classify(err, "failed to check existing stamp")
	}
	if dup {
		return nil, fmt.Errorf("event %s: %w", ev.AccessCode, passport.ErrAlreadyCheckedIn)
	}

	edition, err := s.store.ReserveEdition(ctx, ev.ID)
	if err != nil {
		return nil, passport.Classify(err, "failed to reserve edition")
	}

	now := s.now()
	stamp := passport.NewStamp(s.newID(), userID, ev, edition, s.rules.RarityFor(edition), now)

	var outcome progression.Outcome
	_, err = s.store.ApplyCheckin(ctx, stamp, func(p *passport.Profile) error {
		outcome = s.rules.Apply(p, stamp, ev, now)
		return nil
	})
	if err != nil {
		if errors.Is(err, passport.ErrAlreadyCheckedIn) {
			zap.L().Info("duplicate check-in lost race, edition orphaned",
				zap.String("user_id", userID),
				zap.String("event_id", ev.ID),
				zap.Int("edition", edition))
			return nil, fmt.Errorf("event %s: %w", ev.AccessCode, passport.ErrAlreadyCheckedIn)
		}
		zap.L().Error("check-in failed after edition reserved",
			zap.String("user_id", userID),
			zap.String("event_id", ev.ID),
			zap.Int("edition", edition),
			zap.Error(err))
		return nil, passport.Classify(err, "failed to record check-in")
	}

	s.recordProgress(stamp, outcome)

	return &CheckinResult{
		Stamp:           stamp,
		CreditsEarned:   outcome.CreditsEarned,
		BonusCredits:    outcome.BonusCredits,
		NewAchievements: outcome.NewAchievements,
		TierChanged:     outcome.TierChanged,
		NewTier:         outcome.NewTier,
	}, nil
}

func (s *PassportService) recordProgress(stamp *passport.Stamp, outcome progression.Outcome) {
	metrics.StampsIssued.WithLabelValues(string(stamp.Rarity)).Inc()
	for _, a := range outcome.NewAchievements {
		metrics.AchievementUnlocks.WithLabelValues(a.ID).Inc()
	}
	if outcome.TierChanged {
		metrics.TierUps.WithLabelValues(string(*outcome.NewTier)).Inc()
	}

	zap.L().Info("check-in recorded",
		zap.String("user_id", stamp.UserID),
		zap.String("event_id", stamp.EventID),
		zap.Int("edition", stamp.EditionNumber),
		zap.String("rarity", string(stamp.Rarity)),
		zap.Int("credits", outcome.CreditsEarned),
		zap.Int("bonus", outcome.BonusCredits))

	if s.notifier == nil {
		return
	}
	for _, a := range outcome.NewAchievements {
		s.notifier.Enqueue(notification.AchievementUnlocked(stamp.UserID, a))
	}
	if outcome.TierChanged {
		s.notifier.Enqueue(notification.TierReached(stamp.UserID, *outcome.NewTier))
	}
}

func checkinOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, passport.ErrAlreadyCheckedIn):
		return metrics.OutcomeDuplicate
	case errors.Is(err, passport.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, passport.ErrValidation):
		return metrics.OutcomeInvalid
	case errors.Is(err, passport.ErrServiceUnavailable):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeInternalFail
	}
}

// GetProfile never fails for a user without check-ins; they get a zeroed
// BRONZE profile.
func (s *PassportService) GetProfile(ctx context.Context, userID string) (*ProfileResponse, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, passport.ErrNotFound) {
			return nil, passport.Classify(err, "failed to get profile")
		}
		p = passport.NewProfile(userID, s.now())
	}

	stats := p.Stats()
	return &ProfileResponse{
		Profile:      p,
		TierProgress: s.rules.Tiers.Progress(p.TotalCredits),
		Achievements: achievement.WithStatus(s.rules.Catalogue, stats, p.UnlockedAchievements),
	}, nil
}

func (s *PassportService) GetStamps(ctx context.Context, userID string, q passport.StampQuery) ([]*passport.Stamp, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	stamps, err := s.store.ListStamps(ctx, userID, q)
	if err != nil {
		return nil, passport.Classify(err, "failed to get stamps")
	}
	return stamps, nil
}

func (s *PassportService) GetLeaderboard(ctx context.Context, userID string, limit int) (*leaderboard.Leaderboard, error) {
	lb, err := s.store.Leaderboard(ctx, userID, leaderboard.ClampLimit(limit))
	if err != nil {
		return nil, passport.Classify(err, "failed to get leaderboard")
	}
	return lb, nil
}

func (s *PassportService) ToggleFavorite(ctx context.Context, userID, stampID string) (*passport.Stamp, error) {
	if stampID == "" {
		return nil, fmt.Errorf("missing stamp id: %w", passport.ErrValidation)
	}
	st, err := s.store.ToggleFavorite(ctx, userID, stampID)
	if err != nil {
		return nil, passport.Classify(err, "failed to toggle favorite")
	}
	return st, nil
}

func (s *PassportService) RegisterDevice(ctx context.Context, userID string, req *passport.RegisterDeviceRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	err := s.devices.SaveDevice(ctx, userID, notification.DeviceToken{Token: req.Token, Platform: req.Platform})
	if err != nil {
		return passport.Classify(err, "failed to register device")
	}
	return nil
}

// Achievements returns the catalogue for display.
func (s *PassportService) Achievements() []achievement.Achievement {
	return s.rules.Catalogue
}
