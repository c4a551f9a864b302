package passport

import (
	"fmt"
	"strings"
	"time"
)

type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
)

// ParseRarity accepts any casing; the empty string is not a rarity.
func ParseRarity(s string) (Rarity, error) {
	switch r := Rarity(strings.ToUpper(strings.TrimSpace(s))); r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return r, nil
	}
	return "", fmt.Errorf("unknown rarity %q: %w", s, ErrValidation)
}

// RarityBand covers editions up to and including MaxEdition. A MaxEdition of
// zero means the band is unbounded and must be last.
type RarityBand struct {
	MaxEdition int
	Rarity     Rarity
}

// RarityTable is ordered by ascending MaxEdition, rarest first.
type RarityTable []RarityBand

// DefaultRarityTable: editions 1-10 LEGENDARY, 11-50 EPIC, 51-200 RARE, 201+ COMMON.
var DefaultRarityTable = RarityTable{
	{MaxEdition: 10, Rarity: RarityLegendary},
	{MaxEdition: 50, Rarity: RarityEpic},
	{MaxEdition: 200, Rarity: RarityRare},
	{MaxEdition: 0, Rarity: RarityCommon},
}

func (t RarityTable) For(edition int) Rarity {
	for _, band := range t {
		if band.MaxEdition == 0 || edition <= band.MaxEdition {
			return band.Rarity
		}
	}
	if len(t) == 0 {
		return RarityCommon
	}
	return t[len(t)-1].Rarity
}

// Stamp records one successful check-in. Only IsFavorite changes after creation.
type Stamp struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	EventID       string    `json:"eventId"`
	EventTitle    string    `json:"eventTitle"`
	CountryCode   string    `json:"countryCode"`
	Location      string    `json:"location,omitempty"`
	EventType     EventType `json:"eventType"`
	Rarity        Rarity    `json:"rarity"`
	EditionNumber int       `json:"editionNumber"`
	CreditsEarned int       `json:"creditsEarned"`
	StampedAt     time.Time `json:"stampedAt"`
	IsFavorite    bool      `json:"isFavorite"`
}

// NewStamp denormalizes the event onto a stamp for the given edition.
func NewStamp(id, userID string, ev Event, edition int, rarity Rarity, at time.Time) *Stamp {
	return &Stamp{
		ID:            id,
		UserID:        userID,
		EventID:       ev.ID,
		EventTitle:    ev.Title,
		CountryCode:   ev.CountryCode,
		Location:      ev.Location,
		EventType:     ev.EventType,
		Rarity:        rarity,
		EditionNumber: edition,
		StampedAt:     at,
	}
}
