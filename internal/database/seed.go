package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"socaPassportAPI/internal/passport"
)

func capacity(n int) *int { return &n }

func at(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

// SampleEvents is the launch event set used for demos and local testing.
var SampleEvents = []passport.Event{
	{
		Title: "Soca Brainwash 2026", AccessCode: "BRAIN-2026", CountryCode: "TT",
		Location: "O2 Park, Chaguaramas", Circuit: "trinidad", Organizer: "Island People",
		EventType: passport.EventFete, IsActive: true, IsFlagship: true,
		StartTime: at("2026-02-23T20:00:00-04:00"), MaxCapacity: capacity(15000),
	},
	{
		Title: "AM Bush J'ouvert", AccessCode: "AMBUSH-2026", CountryCode: "TT",
		Location: "Brian Lara Promenade", Circuit: "trinidad", Organizer: "Tribe",
		EventType: passport.EventJouvert, IsActive: true,
		StartTime: at("2026-02-24T04:00:00-04:00"), MaxCapacity: capacity(5000),
	},
	{
		Title: "Miami Carnival Road March", AccessCode: "MIAMI-ROAD", CountryCode: "US",
		Location: "Miami-Dade Fairgrounds", Circuit: "miami", Organizer: "Miami Broward Carnival",
		EventType: passport.EventCarnival, IsActive: true, IsFlagship: true,
		StartTime: at("2026-10-11T09:00:00-04:00"), MaxCapacity: capacity(50000),
	},
	{
		Title: "Sunrise Breakfast Fete", AccessCode: "SUNRISE-LC", CountryCode: "LC",
		Location: "Mas Camp, St. Lucia", Circuit: "stlucia", Organizer: "Lucian Events",
		EventType: passport.EventBreakfast, IsActive: true,
		StartTime: at("2026-07-14T06:00:00-04:00"), MaxCapacity: capacity(800),
	},
	{
		Title: "Catamaran Vibes Cruise", AccessCode: "BOAT-VIBES", CountryCode: "BB",
		Location: "Barbados Harbour", Circuit: "barbados", Organizer: "Island Cruises",
		EventType: passport.EventBoatRide, IsActive: true,
		StartTime: at("2026-08-02T11:00:00-04:00"), MaxCapacity: capacity(200),
	},
	{
		Title: "Demo Test Event", AccessCode: "TEST-001", CountryCode: "TT",
		Location: "Test Location", Circuit: "trinidad", Organizer: "Carnival Planner Team",
		EventType: passport.EventFete, IsActive: true,
		StartTime: at("2026-01-20T12:00:00-04:00"), MaxCapacity: capacity(1000),
	},
}

// SeedEvents inserts SampleEvents when passport_events is empty and reports
// how many rows it wrote.
func SeedEvents(ctx context.Context, db *pgxpool.Pool) (int, error) {
	var count int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM passport_events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	if count > 0 {
		zap.L().Info("events already exist, skipping seed", zap.Int("count", count))
		return 0, nil
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, ev := range SampleEvents {
		_, err := tx.Exec(ctx, `
			INSERT INTO passport_events (id, access_code, title, country_code, location, carnival_circuit,
				organizer_name, event_type, is_active, is_flagship, start_time, max_capacity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (access_code) DO NOTHING
		`, uuid.NewString(), ev.AccessCode, ev.Title, ev.CountryCode, ev.Location, ev.Circuit,
			ev.Organizer, string(ev.EventType), ev.IsActive, ev.IsFlagship, ev.StartTime, ev.MaxCapacity)
		if err != nil {
			return 0, fmt.Errorf("failed to seed event %s: %w", ev.AccessCode, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}

	zap.L().Info("seeded passport events", zap.Int("count", len(SampleEvents)))
	return len(SampleEvents), nil
}
