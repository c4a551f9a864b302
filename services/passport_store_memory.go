package services

import (
	"context"
	"slices"
	"strings"
	"sync"

	"socaPassportAPI/internal/leaderboard"
	"socaPassportAPI/internal/notification"
	"socaPassportAPI/internal/passport"
	"socaPassportAPI/internal/user"
)

// MemoryStore keeps everything in process. It backs tests and local runs
// without Postgres. Profiles are mutated on a copy and swapped in, so a
// failed apply leaves no trace.
type MemoryStore struct {
	mu       sync.RWMutex
	events   map[string]*passport.Event // by access code
	editions map[string]int             // by event id
	profiles map[string]*passport.Profile
	stamps   map[string][]*passport.Stamp // by user id, oldest first
	users    map[string]*user.User
	devices  map[string]deviceEntry // by token
}

type deviceEntry struct {
	userID string
	device notification.DeviceToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:   make(map[string]*passport.Event),
		editions: make(map[string]int),
		profiles: make(map[string]*passport.Profile),
		stamps:   make(map[string][]*passport.Stamp),
		users:    make(map[string]*user.User),
		devices:  make(map[string]deviceEntry),
	}
}

func (m *MemoryStore) AddEvent(ev passport.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.AccessCode = strings.ToUpper(ev.AccessCode)
	m.events[ev.AccessCode] = &ev
	m.editions[ev.ID] = ev.TotalCheckins
}

func (m *MemoryStore) Resolve(ctx context.Context, accessCode string) (passport.Event, error) {
	if err := ctx.Err(); err != nil {
		return passport.Event{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.events[strings.ToUpper(accessCode)]
	if !ok || !ev.IsActive {
		return passport.Event{}, passport.ErrNotFound
	}
	out := *ev
	out.TotalCheckins = m.editions[ev.ID]
	return out, nil
}

func (m *MemoryStore) HasStamp(ctx context.Context, userID, eventID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasStampLocked(userID, eventID), nil
}

func (m *MemoryStore) hasStampLocked(userID, eventID string) bool {
	return slices.ContainsFunc(m.stamps[userID], func(s *passport.Stamp) bool { return s.EventID == eventID })
}

func (m *MemoryStore) ReserveEdition(ctx context.Context, eventID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasEventID(eventID) {
		return 0, errEventGone
	}
	m.editions[eventID]++
	return m.editions[eventID], nil
}

func (m *MemoryStore) hasEventID(id string) bool {
	for _, ev := range m.events {
		if ev.ID == id {
			return true
		}
	}
	return false
}

func (m *MemoryStore) ApplyCheckin(ctx context.Context, stamp *passport.Stamp, apply func(p *passport.Profile) error) (*passport.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasStampLocked(stamp.UserID, stamp.EventID) {
		return nil, passport.ErrAlreadyCheckedIn
	}

	var working *passport.Profile
	if current, ok := m.profiles[stamp.UserID]; ok {
		working = current.Clone()
	} else {
		working = passport.NewProfile(stamp.UserID, stamp.StampedAt)
	}

	if err := apply(working); err != nil {
		return nil, err
	}

	stored := *stamp
	m.stamps[stamp.UserID] = append(m.stamps[stamp.UserID], &stored)
	m.profiles[stamp.UserID] = working
	return working.Clone(), nil
}

func (m *MemoryStore) GetProfile(ctx context.Context, userID string) (*passport.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, passport.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *MemoryStore) ListStamps(ctx context.Context, userID string, q passport.StampQuery) ([]*passport.Stamp, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.stamps[userID]
	filtered := make([]*passport.Stamp, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		s := all[i]
		if q.Rarity != nil && s.Rarity != *q.Rarity {
			continue
		}
		cp := *s
		filtered = append(filtered, &cp)
	}
	slices.SortStableFunc(filtered, func(a, b *passport.Stamp) int {
		return b.StampedAt.Compare(a.StampedAt)
	})

	if q.Offset >= len(filtered) {
		return []*passport.Stamp{}, nil
	}
	end := min(q.Offset+q.Limit, len(filtered))
	return filtered[q.Offset:end], nil
}

func (m *MemoryStore) ToggleFavorite(ctx context.Context, userID, stampID string) (*passport.Stamp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stamps[userID] {
		if s.ID == stampID {
			s.IsFavorite = !s.IsFavorite
			cp := *s
			return &cp, nil
		}
	}
	return nil, passport.ErrNotFound
}

func (m *MemoryStore) Leaderboard(ctx context.Context, userID string, limit int) (*leaderboard.Leaderboard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]*leaderboard.LeaderboardEntry, 0, len(m.profiles))
	for _, p := range m.profiles {
		e := leaderboard.FromProfile(p)
		if u, ok := m.users[p.UserID]; ok {
			e.DisplayName = u.DisplayName
			e.ProfilePictureURL = u.ProfilePictureURL
		}
		entries = append(entries, e)
	}
	return leaderboard.Build(entries, userID, limit), nil
}

func (m *MemoryStore) SaveDevice(ctx context.Context, userID string, device notification.DeviceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[device.Token] = deviceEntry{userID: userID, device: device}
	return nil
}

func (m *MemoryStore) DevicesFor(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []notification.DeviceToken
	for _, d := range m.devices {
		if d.userID == userID {
			out = append(out, d.device)
		}
	}
	slices.SortFunc(out, func(a, b notification.DeviceToken) int { return strings.Compare(a.Token, b.Token) })
	return out, nil
}

func (m *MemoryStore) RemoveDevice(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.devices, token)
	return nil
}

func (m *MemoryStore) UpsertUser(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	if existing, ok := m.users[u.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	}
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryStore) DeleteUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
	delete(m.profiles, userID)
	delete(m.stamps, userID)
	for token, d := range m.devices {
		if d.userID == userID {
			delete(m.devices, token)
		}
	}
	return nil
}
