package leaderboard

import (
	"sort"

	"socaPassportAPI/internal/passport"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

type LeaderboardEntry struct {
	UserID            string        `json:"userId"`
	DisplayName       string        `json:"displayName,omitempty"`
	ProfilePictureURL *string       `json:"profilePictureUrl,omitempty"`
	TotalCredits      int           `json:"totalCredits"`
	TotalEvents       int           `json:"totalEvents"`
	CurrentTier       passport.Tier `json:"currentTier"`
	AchievementCount  int           `json:"achievementCount"`
	Rank              int           `json:"rank"`
}

type Leaderboard struct {
	Entries      []*LeaderboardEntry `json:"entries"`
	UserPosition *LeaderboardEntry   `json:"userPosition"`
	TotalUsers   int                 `json:"totalUsers"`
}

// Less orders by credits desc, then events desc, then user id asc.
func Less(a, b *LeaderboardEntry) bool {
	if a.TotalCredits != b.TotalCredits {
		return a.TotalCredits > b.TotalCredits
	}
	if a.TotalEvents != b.TotalEvents {
		return a.TotalEvents > b.TotalEvents
	}
	return a.UserID < b.UserID
}

// Rank sorts entries in place and assigns 1-based positions.
func Rank(entries []*LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return Less(entries[i], entries[j]) })
	for i, e := range entries {
		e.Rank = i + 1
	}
}

// Build ranks every entry and cuts the top limit. The caller's entry is
// looked up in the full ranking so it is set even outside the cut.
func Build(entries []*LeaderboardEntry, userID string, limit int) *Leaderboard {
	limit = ClampLimit(limit)
	Rank(entries)

	lb := &Leaderboard{Entries: entries, TotalUsers: len(entries)}
	for _, e := range entries {
		if e.UserID == userID {
			lb.UserPosition = e
			break
		}
	}
	if len(entries) > limit {
		lb.Entries = entries[:limit]
	}
	if lb.Entries == nil {
		lb.Entries = []*LeaderboardEntry{}
	}
	return lb
}

func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// FromProfile builds an unranked entry.
func FromProfile(p *passport.Profile) *LeaderboardEntry {
	return &LeaderboardEntry{
		UserID:           p.UserID,
		TotalCredits:     p.TotalCredits,
		TotalEvents:      p.TotalEvents,
		CurrentTier:      p.CurrentTier,
		AchievementCount: len(p.UnlockedAchievements),
	}
}
