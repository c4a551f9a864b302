package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socaPassportAPI/internal/achievement"
	"socaPassportAPI/internal/passport"
)

var now = time.Date(2026, 2, 16, 4, 0, 0, 0, time.UTC)

func event(id, country string, typ passport.EventType) passport.Event {
	return passport.Event{ID: id, Title: id, CountryCode: country, EventType: typ, IsActive: true}
}

func stampFor(p *passport.Profile, ev passport.Event, edition int) *passport.Stamp {
	return passport.NewStamp("s-"+ev.ID, p.UserID, ev, edition, passport.DefaultRarityTable.For(edition), now)
}

func TestApplyFirstCheckin(t *testing.T) {
	rules := DefaultRules()
	p := passport.NewProfile("u1", now)
	ev := event("e1", "TT", passport.EventFete)
	s := stampFor(p, ev, 1)

	out := rules.Apply(p, s, ev, now)

	// LEGENDARY 100 + new country 20, then first_stamp 50.
	assert.Equal(t, 120, out.CreditsEarned)
	assert.Equal(t, 120, s.CreditsEarned)
	assert.Equal(t, 50, out.BonusCredits)
	require.Len(t, out.NewAchievements, 1)
	assert.Equal(t, "first_stamp", out.NewAchievements[0].ID)
	assert.False(t, out.TierChanged)
	assert.Nil(t, out.NewTier)

	assert.Equal(t, 1, p.TotalEvents)
	assert.Equal(t, 170, p.TotalCredits)
	assert.Equal(t, 50, p.AchievementPoints)
	assert.Equal(t, []string{"TT"}, p.CountriesVisited)
	assert.Equal(t, passport.TierBronze, p.CurrentTier)
}

func TestApplyTierUp(t *testing.T) {
	rules := DefaultRules()
	p := passport.NewProfile("u1", now)
	p.TotalEvents = 3
	p.TotalCredits = 1495
	p.CurrentTier = passport.TierSilver
	p.CountriesVisited = []string{"TT"}
	p.UnlockedAchievements = []string{"first_stamp", "tier_up"}

	ev := event("e9", "TT", passport.EventFete)
	s := stampFor(p, ev, 250)

	out := rules.Apply(p, s, ev, now)

	assert.Equal(t, 10, out.CreditsEarned)
	assert.Equal(t, 0, out.BonusCredits)
	assert.True(t, out.TierChanged)
	require.NotNil(t, out.NewTier)
	assert.Equal(t, passport.TierGold, *out.NewTier)
	assert.Equal(t, 1505, p.TotalCredits)
}

func TestApplyBonusCountsTowardTier(t *testing.T) {
	rules := DefaultRules()
	p := passport.NewProfile("u1", now)
	p.TotalEvents = 2
	p.TotalCredits = 300
	p.CountriesVisited = []string{"BB", "TT"}
	p.UnlockedAchievements = []string{"first_stamp"}

	ev := event("e3", "JM", passport.EventFete)
	s := stampFor(p, ev, 300)
	pointsBefore := p.AchievementPoints

	out := rules.Apply(p, s, ev, now)

	// COMMON 10 + new country 20 = 30, island_hopper adds 500.
	assert.Equal(t, 30, out.CreditsEarned)
	assert.Equal(t, 500, out.BonusCredits)
	assert.Equal(t, achievement.TotalPoints(out.NewAchievements), out.BonusCredits)
	assert.Equal(t, pointsBefore+500, p.AchievementPoints)
	assert.Equal(t, 830, p.TotalCredits)
	assert.True(t, out.TierChanged)
	assert.Equal(t, passport.TierSilver, *out.NewTier)
	assert.False(t, p.HasAchievement("tier_up"), "bonus-driven tier is seen on the next check-in")

	ev2 := event("e4", "JM", passport.EventFete)
	out2 := rules.Apply(p, stampFor(p, ev2, 300), ev2, now)
	require.Len(t, out2.NewAchievements, 1)
	assert.Equal(t, "tier_up", out2.NewAchievements[0].ID)
	assert.False(t, out2.TierChanged)
}

func TestApplyNeverDemotes(t *testing.T) {
	rules := DefaultRules()
	p := passport.NewProfile("u1", now)
	p.CurrentTier = passport.TierGold
	p.TotalCredits = 10
	p.UnlockedAchievements = []string{"first_stamp"}

	ev := event("e1", "TT", passport.EventFete)
	out := rules.Apply(p, stampFor(p, ev, 500), ev, now)

	assert.Equal(t, passport.TierGold, p.CurrentTier)
	assert.False(t, out.TierChanged)
}

func TestApplyCountersMonotonic(t *testing.T) {
	rules := DefaultRules()
	p := passport.NewProfile("u1", now)
	types := []passport.EventType{passport.EventJouvert, passport.EventBreakfast, passport.EventEarlyMorning, passport.EventFete, passport.EventJouvert, passport.EventEarlyMorning}
	countries := []string{"TT", "BB", "TT", "GD", "LC", "TT"}

	seen := map[string]bool{}
	for i := range types {
		before := *p.Clone()
		ev := event("e"+string(rune('a'+i)), countries[i], types[i])
		out := rules.Apply(p, stampFor(p, ev, i+1), ev, now)

		assert.Equal(t, before.TotalEvents+1, p.TotalEvents)
		assert.GreaterOrEqual(t, p.TotalCredits, before.TotalCredits)
		assert.GreaterOrEqual(t, len(p.CountriesVisited), len(before.CountriesVisited))
		assert.GreaterOrEqual(t, p.CurrentTier.Ordinal(), before.CurrentTier.Ordinal())
		for _, a := range out.NewAchievements {
			assert.False(t, seen[a.ID], "achievement %s unlocked twice", a.ID)
			seen[a.ID] = true
		}
	}
	assert.Equal(t, 2, p.EventTypeStats[passport.EventJouvert])
	assert.Equal(t, []string{"BB", "GD", "LC", "TT"}, p.CountriesVisited)
	assert.True(t, p.HasAchievement("sunrise_warrior"))
	assert.True(t, p.HasAchievement("island_hopper"))
}
