package progression

import (
	"time"

	"socaPassportAPI/internal/achievement"
	"socaPassportAPI/internal/passport"
)

// Rules bundles the policy tables a check-in is priced against.
type Rules struct {
	Rarity    passport.RarityTable
	Credits   passport.CreditPolicy
	Tiers     passport.TierTable
	Catalogue []achievement.Achievement
}

func DefaultRules() Rules {
	return Rules{
		Rarity:    passport.DefaultRarityTable,
		Credits:   passport.DefaultCreditPolicy,
		Tiers:     passport.DefaultTierTable,
		Catalogue: achievement.DefaultCatalogue,
	}
}

type Outcome struct {
	CreditsEarned   int
	BonusCredits    int
	NewAchievements []achievement.Achievement
	PreviousTier    passport.Tier
	TierChanged     bool
	NewTier         *passport.Tier
}

// Apply folds one stamp into the profile. Credits are priced against the
// profile as it was before the stamp; achievements are evaluated once against
// the stats after base credits, and their points are then added as bonus
// credits before the final tier is computed. The tier never moves down.
func (r Rules) Apply(p *passport.Profile, stamp *passport.Stamp, ev passport.Event, now time.Time) Outcome {
	out := Outcome{PreviousTier: p.CurrentTier}
	if out.PreviousTier == "" {
		out.PreviousTier = passport.TierBronze
	}

	out.CreditsEarned = r.Credits.Calculate(stamp.Rarity, ev, p.Stats())
	stamp.CreditsEarned = out.CreditsEarned

	p.RecordStamp(stamp)
	p.TotalCredits += out.CreditsEarned
	p.CurrentTier = r.higher(out.PreviousTier, r.Tiers.For(p.TotalCredits))

	out.NewAchievements = []achievement.Achievement{}
	for _, a := range achievement.Evaluate(r.Catalogue, p.Stats(), p.UnlockedAchievements) {
		if p.UnlockAchievement(a.ID, a.Points) {
			out.NewAchievements = append(out.NewAchievements, a)
		}
	}
	out.BonusCredits = achievement.TotalPoints(out.NewAchievements)
	p.TotalCredits += out.BonusCredits
	p.CurrentTier = r.higher(p.CurrentTier, r.Tiers.For(p.TotalCredits))
	p.UpdatedAt = now

	if p.CurrentTier.Ordinal() > out.PreviousTier.Ordinal() {
		out.TierChanged = true
		tier := p.CurrentTier
		out.NewTier = &tier
	}
	return out
}

func (r Rules) higher(a, b passport.Tier) passport.Tier {
	if b.Ordinal() > a.Ordinal() {
		return b
	}
	return a
}

// RarityFor maps an edition number to its rarity.
func (r Rules) RarityFor(edition int) passport.Rarity {
	return r.Rarity.For(edition)
}
