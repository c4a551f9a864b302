package achievement

import "socaPassportAPI/internal/passport"

// DefaultCatalogue is the launch set of passport achievements.
var DefaultCatalogue = []Achievement{
	{
		ID:          "first_stamp",
		Name:        "First Steps",
		Description: "Claim your first stamp",
		Icon:        "🎟️",
		Category:    CategoryMilestone,
		Points:      50,
		Criteria:    Criteria{Type: CriteriaEventCount, Target: 1},
	},
	{
		ID:          "island_hopper",
		Name:        "Island Hopper",
		Description: "Check in at 3 different countries",
		Icon:        "🌊",
		Category:    CategoryTravel,
		Points:      500,
		Criteria:    Criteria{Type: CriteriaCountryCount, Target: 3},
	},
	{
		ID:          "sunrise_warrior",
		Name:        "Sunrise Warrior",
		Description: "Check in at 5 J'ouvert or early morning events",
		Icon:        "🌅",
		Category:    CategoryEvents,
		Points:      300,
		Criteria: Criteria{
			Type:       CriteriaEventType,
			Target:     5,
			EventTypes: []passport.EventType{passport.EventJouvert, passport.EventBreakfast, passport.EventEarlyMorning},
		},
	},
	{
		ID:          "loyal_fan",
		Name:        "Loyal Fan",
		Description: "Check in to 10 events total",
		Icon:        "⭐",
		Category:    CategoryMilestone,
		Points:      250,
		Criteria:    Criteria{Type: CriteriaEventCount, Target: 10},
	},
	{
		ID:          "tier_up",
		Name:        "Moving Up",
		Description: "Reach Silver tier",
		Icon:        "📈",
		Category:    CategoryMilestone,
		Points:      200,
		Criteria:    Criteria{Type: CriteriaTierReached, Tier: passport.TierSilver},
	},
}

// Lookup finds a definition by id.
func Lookup(defs []Achievement, id string) (Achievement, bool) {
	for _, d := range defs {
		if d.ID == id {
			return d, true
		}
	}
	return Achievement{}, false
}
