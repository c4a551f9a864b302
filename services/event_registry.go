package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"socaPassportAPI/internal/passport"
)

// PgEventRegistry reads promoter events from passport_events.
type PgEventRegistry struct {
	db *pgxpool.Pool
}

func NewPgEventRegistry(db *pgxpool.Pool) *PgEventRegistry {
	return &PgEventRegistry{db: db}
}

func (r *PgEventRegistry) Resolve(ctx context.Context, accessCode string) (passport.Event, error) {
	query := `
	SELECT id, access_code, title, country_code, location, carnival_circuit, organizer_name,
		event_type, is_active, is_flagship, start_time, max_capacity, total_checkins
	FROM passport_events
	WHERE access_code = $1 AND is_active
	`

	var ev passport.Event
	var eventType string
	err := r.db.QueryRow(ctx, query, strings.ToUpper(accessCode)).Scan(
		&ev.ID,
		&ev.AccessCode,
		&ev.Title,
		&ev.CountryCode,
		&ev.Location,
		&ev.Circuit,
		&ev.Organizer,
		&eventType,
		&ev.IsActive,
		&ev.IsFlagship,
		&ev.StartTime,
		&ev.MaxCapacity,
		&ev.TotalCheckins,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return passport.Event{}, passport.ErrNotFound
		}
		return passport.Event{}, fmt.Errorf("failed to resolve event: %w: %v", passport.ErrServiceUnavailable, err)
	}
	ev.EventType = passport.EventType(eventType)
	return ev, nil
}

// BoundedRegistry gives every lookup its own deadline. Anything other than
// a definite miss surfaces as passport.ErrServiceUnavailable.
type BoundedRegistry struct {
	inner   EventRegistry
	timeout time.Duration
}

func NewBoundedRegistry(inner EventRegistry, timeout time.Duration) *BoundedRegistry {
	return &BoundedRegistry{inner: inner, timeout: timeout}
}

func (r *BoundedRegistry) Resolve(ctx context.Context, accessCode string) (passport.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ev, err := r.inner.Resolve(ctx, accessCode)
	switch {
	case err == nil:
		return ev, nil
	case errors.Is(err, passport.ErrNotFound):
		return passport.Event{}, fmt.Errorf("no active event for code %s: %w", accessCode, passport.ErrNotFound)
	case errors.Is(err, passport.ErrServiceUnavailable):
		return passport.Event{}, err
	default:
		return passport.Event{}, fmt.Errorf("event registry: %w: %v", passport.ErrServiceUnavailable, err)
	}
}
