package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"socaPassportAPI/internal/leaderboard"
	"socaPassportAPI/internal/notification"
	"socaPassportAPI/internal/passport"
	"socaPassportAPI/internal/user"
)

type PgPassportStore struct {
	db *pgxpool.Pool
}

func NewPgPassportStore(db *pgxpool.Pool) *PgPassportStore {
	return &PgPassportStore{db: db}
}

const profileColumns = `user_id, total_credits, total_events, countries_visited, current_tier,
	unlocked_achievements, achievement_points, event_type_stats, created_at, updated_at`

const stampColumns = `id, user_id, event_id, event_title, country_code, location, event_type,
	rarity, edition_number, credits_earned, stamped_at, is_favorite`

// storeError maps driver failures onto the passport sentinels. Timeouts and
// connection failures are retryable, everything else is internal.
func storeError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w: %v", op, passport.ErrServiceUnavailable, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%s: %w: %v", op, passport.ErrServiceUnavailable, err)
	}
	return passport.Classify(err, op)
}

// stampUserEventKey is the UNIQUE (user_id, event_id) constraint on
// passport_stamps. Other unique violations are not duplicates.
const stampUserEventKey = "passport_stamps_user_event_key"

func isDuplicateStamp(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == stampUserEventKey
}

func scanProfile(row pgx.Row) (*passport.Profile, error) {
	p := &passport.Profile{}
	var tier string
	var typeStats map[string]int
	err := row.Scan(
		&p.UserID,
		&p.TotalCredits,
		&p.TotalEvents,
		&p.CountriesVisited,
		&tier,
		&p.UnlockedAchievements,
		&p.AchievementPoints,
		&typeStats,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CurrentTier = passport.Tier(tier)
	p.EventTypeStats = make(map[passport.EventType]int, len(typeStats))
	for k, v := range typeStats {
		p.EventTypeStats[passport.EventType(k)] = v
	}
	if p.CountriesVisited == nil {
		p.CountriesVisited = []string{}
	}
	if p.UnlockedAchievements == nil {
		p.UnlockedAchievements = []string{}
	}
	return p, nil
}

func scanStamp(row pgx.Row) (*passport.Stamp, error) {
	s := &passport.Stamp{}
	var eventType, rarity string
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.EventID,
		&s.EventTitle,
		&s.CountryCode,
		&s.Location,
		&eventType,
		&rarity,
		&s.EditionNumber,
		&s.CreditsEarned,
		&s.StampedAt,
		&s.IsFavorite,
	)
	if err != nil {
		return nil, err
	}
	s.EventType = passport.EventType(eventType)
	s.Rarity = passport.Rarity(rarity)
	return s, nil
}

func (s *PgPassportStore) HasStamp(ctx context.Context, userID, eventID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM passport_stamps WHERE user_id = $1 AND event_id = $2)`,
		userID, eventID,
	).Scan(&exists)
	if err != nil {
		return false, storeError("failed to check stamp", err)
	}
	return exists, nil
}

// errEventGone hides the internal event id from callers.
var errEventGone = fmt.Errorf("event no longer exists: %w", passport.ErrNotFound)

// ReserveEdition relies on the row lock UPDATE takes, so concurrent callers
// for the same event see distinct consecutive values.
func (s *PgPassportStore) ReserveEdition(ctx context.Context, eventID string) (int, error) {
	var edition int
	err := s.db.QueryRow(ctx, `
		UPDATE passport_events
		SET total_checkins = total_checkins + 1
		WHERE id = $1
		RETURNING total_checkins
	`, eventID).Scan(&edition)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errEventGone
		}
		return 0, storeError("failed to reserve edition", err)
	}
	return edition, nil
}

func (s *PgPassportStore) ApplyCheckin(ctx context.Context, stamp *passport.Stamp, apply func(p *passport.Profile) error) (*passport.Profile, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storeError("failed to begin check-in", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO passport_profiles (user_id, created_at, updated_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, stamp.UserID, stamp.StampedAt)
	if err != nil {
		return nil, storeError("failed to create profile", err)
	}

	profile, err := scanProfile(tx.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM passport_profiles WHERE user_id = $1 FOR UPDATE`,
		stamp.UserID,
	))
	if err != nil {
		return nil, storeError("failed to lock profile", err)
	}

	var duplicate bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM passport_stamps WHERE user_id = $1 AND event_id = $2)`,
		stamp.UserID, stamp.EventID,
	).Scan(&duplicate)
	if err != nil {
		return nil, storeError("failed to check stamp", err)
	}
	if duplicate {
		return nil, passport.ErrAlreadyCheckedIn
	}

	if err := apply(profile); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO passport_stamps (`+stampColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		stamp.ID,
		stamp.UserID,
		stamp.EventID,
		stamp.EventTitle,
		stamp.CountryCode,
		stamp.Location,
		string(stamp.EventType),
		string(stamp.Rarity),
		stamp.EditionNumber,
		stamp.CreditsEarned,
		stamp.StampedAt,
		stamp.IsFavorite,
	)
	if err != nil {
		if isDuplicateStamp(err) {
			return nil, passport.ErrAlreadyCheckedIn
		}
		return nil, storeError("failed to insert stamp", err)
	}

	typeStats := make(map[string]int, len(profile.EventTypeStats))
	for k, v := range profile.EventTypeStats {
		typeStats[string(k)] = v
	}
	_, err = tx.Exec(ctx, `
		UPDATE passport_profiles
		SET total_credits = $2,
			total_events = $3,
			countries_visited = $4,
			current_tier = $5,
			unlocked_achievements = $6,
			achievement_points = $7,
			event_type_stats = $8,
			updated_at = $9
		WHERE user_id = $1
	`,
		profile.UserID,
		profile.TotalCredits,
		profile.TotalEvents,
		profile.CountriesVisited,
		string(profile.CurrentTier),
		profile.UnlockedAchievements,
		profile.AchievementPoints,
		typeStats,
		profile.UpdatedAt,
	)
	if err != nil {
		return nil, storeError("failed to update profile", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isDuplicateStamp(err) {
			return nil, passport.ErrAlreadyCheckedIn
		}
		return nil, storeError("failed to commit check-in", err)
	}
	return profile, nil
}

func (s *PgPassportStore) GetProfile(ctx context.Context, userID string) (*passport.Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM passport_profiles WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, passport.ErrNotFound
		}
		return nil, storeError("failed to get profile", err)
	}
	return p, nil
}

func (s *PgPassportStore) ListStamps(ctx context.Context, userID string, q passport.StampQuery) ([]*passport.Stamp, error) {
	var rarity *string
	if q.Rarity != nil {
		r := string(*q.Rarity)
		rarity = &r
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+stampColumns+`
		FROM passport_stamps
		WHERE user_id = $1 AND ($2::text IS NULL OR rarity = $2)
		ORDER BY stamped_at DESC, id
		LIMIT $3 OFFSET $4
	`, userID, rarity, q.Limit, q.Offset)
	if err != nil {
		return nil, storeError("failed to list stamps", err)
	}
	defer rows.Close()

	stamps := []*passport.Stamp{}
	for rows.Next() {
		st, err := scanStamp(rows)
		if err != nil {
			return nil, storeError("failed to scan stamp", err)
		}
		stamps = append(stamps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to list stamps", err)
	}
	return stamps, nil
}

func (s *PgPassportStore) ToggleFavorite(ctx context.Context, userID, stampID string) (*passport.Stamp, error) {
	st, err := scanStamp(s.db.QueryRow(ctx, `
		UPDATE passport_stamps
		SET is_favorite = NOT is_favorite
		WHERE id = $1 AND user_id = $2
		RETURNING `+stampColumns,
		stampID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("stamp %s: %w", stampID, passport.ErrNotFound)
		}
		return nil, storeError("failed to toggle favorite", err)
	}
	return st, nil
}

const rankedProfiles = `
	WITH ranked AS (
		SELECT p.user_id,
			COALESCE(u.display_name, '') AS display_name,
			u.profile_picture_url,
			p.total_credits,
			p.total_events,
			p.current_tier,
			COALESCE(array_length(p.unlocked_achievements, 1), 0) AS achievement_count,
			ROW_NUMBER() OVER (
				ORDER BY p.total_credits DESC, p.total_events DESC, p.user_id COLLATE "C" ASC
			) AS rank
		FROM passport_profiles p
		LEFT JOIN passport_users u ON u.user_id = p.user_id
	)
`

func scanEntry(row pgx.Row) (*leaderboard.LeaderboardEntry, error) {
	e := &leaderboard.LeaderboardEntry{}
	var tier string
	err := row.Scan(
		&e.UserID,
		&e.DisplayName,
		&e.ProfilePictureURL,
		&e.TotalCredits,
		&e.TotalEvents,
		&tier,
		&e.AchievementCount,
		&e.Rank,
	)
	if err != nil {
		return nil, err
	}
	e.CurrentTier = passport.Tier(tier)
	return e, nil
}

func (s *PgPassportStore) Leaderboard(ctx context.Context, userID string, limit int) (*leaderboard.Leaderboard, error) {
	limit = leaderboard.ClampLimit(limit)
	columns := `SELECT user_id, display_name, profile_picture_url, total_credits, total_events,
		current_tier, achievement_count, rank FROM ranked`

	rows, err := s.db.Query(ctx, rankedProfiles+columns+` ORDER BY rank LIMIT $1`, limit)
	if err != nil {
		return nil, storeError("failed to get leaderboard", err)
	}
	defer rows.Close()

	lb := &leaderboard.Leaderboard{Entries: []*leaderboard.LeaderboardEntry{}}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, storeError("failed to scan leaderboard entry", err)
		}
		lb.Entries = append(lb.Entries, e)
		if e.UserID == userID {
			lb.UserPosition = e
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to get leaderboard", err)
	}

	if lb.UserPosition == nil && userID != "" {
		e, err := scanEntry(s.db.QueryRow(ctx, rankedProfiles+columns+` WHERE user_id = $1`, userID))
		switch {
		case err == nil:
			lb.UserPosition = e
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, storeError("failed to get user position", err)
		}
	}

	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM passport_profiles`).Scan(&lb.TotalUsers); err != nil {
		return nil, storeError("failed to count passports", err)
	}
	return lb, nil
}

func (s *PgPassportStore) SaveDevice(ctx context.Context, userID string, device notification.DeviceToken) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO device_tokens (token, user_id, platform, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, updated_at = NOW()
	`, device.Token, userID, device.Platform)
	if err != nil {
		return storeError("failed to save device", err)
	}
	return nil
}

func (s *PgPassportStore) DevicesFor(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx,
		`SELECT token, platform FROM device_tokens WHERE user_id = $1 ORDER BY token`, userID)
	if err != nil {
		return nil, storeError("failed to list devices", err)
	}
	defer rows.Close()

	var devices []notification.DeviceToken
	for rows.Next() {
		var d notification.DeviceToken
		if err := rows.Scan(&d.Token, &d.Platform); err != nil {
			return nil, storeError("failed to scan device", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("failed to list devices", err)
	}
	return devices, nil
}

func (s *PgPassportStore) RemoveDevice(ctx context.Context, token string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM device_tokens WHERE token = $1`, token); err != nil {
		return storeError("failed to remove device", err)
	}
	return nil
}

func (s *PgPassportStore) UpsertUser(ctx context.Context, u *user.User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO passport_users (user_id, display_name, profile_picture_url, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
			profile_picture_url = EXCLUDED.profile_picture_url,
			updated_at = NOW()
	`, u.ID, u.DisplayName, u.ProfilePictureURL)
	if err != nil {
		return storeError("failed to upsert user", err)
	}
	return nil
}

func (s *PgPassportStore) DeleteUser(ctx context.Context, userID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return storeError("failed to begin delete", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range []string{
		`DELETE FROM passport_stamps WHERE user_id = $1`,
		`DELETE FROM passport_profiles WHERE user_id = $1`,
		`DELETE FROM device_tokens WHERE user_id = $1`,
		`DELETE FROM passport_users WHERE user_id = $1`,
	} {
		if _, err := tx.Exec(ctx, stmt, userID); err != nil {
			return storeError("failed to delete user data", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return storeError("failed to commit delete", err)
	}
	return nil
}
