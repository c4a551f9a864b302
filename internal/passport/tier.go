package passport

type Tier string

const (
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

var tierOrder = []Tier{TierBronze, TierSilver, TierGold, TierPlatinum}

// Ordinal is the position in BRONZE < SILVER < GOLD < PLATINUM, or -1.
func (t Tier) Ordinal() int {
	for i, tier := range tierOrder {
		if tier == t {
			return i
		}
	}
	return -1
}

type TierBand struct {
	Tier       Tier
	MinCredits int
}

// TierTable is ordered by ascending MinCredits and starts at zero.
type TierTable []TierBand

var DefaultTierTable = TierTable{
	{Tier: TierBronze, MinCredits: 0},
	{Tier: TierSilver, MinCredits: 500},
	{Tier: TierGold, MinCredits: 1500},
	{Tier: TierPlatinum, MinCredits: 5000},
}

type TierProgress struct {
	CurrentTier       Tier  `json:"currentTier"`
	NextTier          *Tier `json:"nextTier"`
	CreditsToNextTier int   `json:"creditsToNextTier"`
	ProgressPercent   int   `json:"progressPercent"`
}

func (t TierTable) index(credits int) int {
	idx := 0
	for i, band := range t {
		if credits >= band.MinCredits {
			idx = i
		}
	}
	return idx
}

func (t TierTable) For(credits int) Tier {
	if len(t) == 0 {
		return TierBronze
	}
	return t[t.index(credits)].Tier
}

func (t TierTable) Progress(credits int) TierProgress {
	if len(t) == 0 {
		return TierProgress{CurrentTier: TierBronze, ProgressPercent: 100}
	}
	if credits < 0 {
		credits = 0
	}

	i := t.index(credits)
	p := TierProgress{CurrentTier: t[i].Tier}
	if i == len(t)-1 {
		p.ProgressPercent = 100
		return p
	}

	lower, upper := t[i].MinCredits, t[i+1].MinCredits
	next := t[i+1].Tier
	p.NextTier = &next
	p.CreditsToNextTier = upper - credits

	percent := 100 * (credits - lower) / (upper - lower)
	p.ProgressPercent = min(max(percent, 0), 100)
	return p
}
