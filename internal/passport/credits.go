package passport

// CreditPolicy prices a check-in. Calculate has no hidden inputs, so the same
// stamp against the same stats always earns the same credits.
type CreditPolicy struct {
	RarityBase      map[Rarity]int
	EventTypeBonus  map[EventType]int
	FlagshipBonus   int
	NewCountryBonus int
}

var DefaultCreditPolicy = CreditPolicy{
	RarityBase: map[Rarity]int{
		RarityLegendary: 100,
		RarityEpic:      50,
		RarityRare:      25,
		RarityCommon:    10,
	},
	EventTypeBonus: map[EventType]int{
		EventJouvert:      15,
		EventBreakfast:    10,
		EventEarlyMorning: 10,
	},
	FlagshipBonus:   25,
	NewCountryBonus: 20,
}

// Calculate uses the stats as they were before this check-in.
func (p CreditPolicy) Calculate(rarity Rarity, ev Event, before Stats) int {
	credits := p.RarityBase[rarity] + p.EventTypeBonus[ev.EventType]
	if ev.IsFlagship {
		credits += p.FlagshipBonus
	}
	if ev.CountryCode != "" && !before.VisitedCountry(ev.CountryCode) {
		credits += p.NewCountryBonus
	}
	return credits
}
