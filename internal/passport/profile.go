package passport

import (
	"maps"
	"slices"
	"sort"
	"time"
)

// Profile is the per-user aggregate. Counters only grow.
type Profile struct {
	UserID               string            `json:"userId"`
	TotalCredits         int               `json:"totalCredits"`
	TotalEvents          int               `json:"totalEvents"`
	CountriesVisited     []string          `json:"countriesVisited"`
	CurrentTier          Tier              `json:"currentTier"`
	UnlockedAchievements []string          `json:"unlockedAchievements"`
	AchievementPoints    int               `json:"achievementPoints"`
	EventTypeStats       map[EventType]int `json:"eventTypeStats"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`
}

func NewProfile(userID string, now time.Time) *Profile {
	return &Profile{
		UserID:               userID,
		CountriesVisited:     []string{},
		CurrentTier:          TierBronze,
		UnlockedAchievements: []string{},
		EventTypeStats:       map[EventType]int{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func (p *Profile) Clone() *Profile {
	c := *p
	c.CountriesVisited = slices.Clone(p.CountriesVisited)
	c.UnlockedAchievements = slices.Clone(p.UnlockedAchievements)
	c.EventTypeStats = maps.Clone(p.EventTypeStats)
	if c.EventTypeStats == nil {
		c.EventTypeStats = map[EventType]int{}
	}
	return &c
}

func (p *Profile) HasAchievement(id string) bool {
	return slices.Contains(p.UnlockedAchievements, id)
}

// RecordStamp folds the stamp into the event counters. Credits and tier are
// left to the caller.
func (p *Profile) RecordStamp(s *Stamp) {
	p.TotalEvents++
	if s.CountryCode != "" && !slices.Contains(p.CountriesVisited, s.CountryCode) {
		p.CountriesVisited = append(p.CountriesVisited, s.CountryCode)
		sort.Strings(p.CountriesVisited)
	}
	if p.EventTypeStats == nil {
		p.EventTypeStats = map[EventType]int{}
	}
	if s.EventType != "" {
		p.EventTypeStats[s.EventType]++
	}
}

// UnlockAchievement is a no-op for ids already unlocked.
func (p *Profile) UnlockAchievement(id string, points int) bool {
	if p.HasAchievement(id) {
		return false
	}
	p.UnlockedAchievements = append(p.UnlockedAchievements, id)
	p.AchievementPoints += points
	return true
}

func (p *Profile) Stats() Stats {
	return Stats{
		TotalCredits:     p.TotalCredits,
		TotalEvents:      p.TotalEvents,
		CountriesVisited: slices.Clone(p.CountriesVisited),
		EventTypeStats:   maps.Clone(p.EventTypeStats),
		CurrentTier:      p.CurrentTier,
	}
}

// Stats is the read-only view achievement criteria and credit rules look at.
type Stats struct {
	TotalCredits     int
	TotalEvents      int
	CountriesVisited []string
	EventTypeStats   map[EventType]int
	CurrentTier      Tier
}

func (s Stats) VisitedCountry(code string) bool {
	return slices.Contains(s.CountriesVisited, code)
}

func (s Stats) CountryCount() int {
	return len(s.CountriesVisited)
}

// EventTypeCount sums the counts of every listed type.
func (s Stats) EventTypeCount(types ...EventType) int {
	total := 0
	for _, t := range types {
		total += s.EventTypeStats[t]
	}
	return total
}
