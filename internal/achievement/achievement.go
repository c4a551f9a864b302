package achievement

import (
	"encoding/json"
	"sort"

	"socaPassportAPI/internal/passport"
)

type CriteriaType string

const (
	CriteriaEventCount   CriteriaType = "EVENT_COUNT"
	CriteriaCountryCount CriteriaType = "COUNTRY_COUNT"
	CriteriaEventType    CriteriaType = "EVENT_TYPE"
	CriteriaTierReached  CriteriaType = "TIER_REACHED"
)

type Category string

const (
	CategoryMilestone Category = "MILESTONE"
	CategoryTravel    Category = "TRAVEL"
	CategoryEvents    Category = "EVENTS"
	CategorySocial    Category = "SOCIAL"
)

// Criteria uses Target for the counting types and Tier for TIER_REACHED.
// EventTypes is the group summed by EVENT_TYPE.
type Criteria struct {
	Type       CriteriaType         `json:"type"`
	Target     int                  `json:"-"`
	Tier       passport.Tier        `json:"-"`
	EventTypes []passport.EventType `json:"eventTypes,omitempty"`
}

func (c Criteria) MarshalJSON() ([]byte, error) {
	out := struct {
		Type       CriteriaType         `json:"type"`
		Target     any                  `json:"target"`
		EventTypes []passport.EventType `json:"eventTypes,omitempty"`
	}{Type: c.Type, Target: c.Target, EventTypes: c.EventTypes}
	if c.Type == CriteriaTierReached {
		out.Target = c.Tier
	}
	return json.Marshal(out)
}

type Achievement struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Category    Category `json:"category"`
	Points      int      `json:"points"`
	Criteria    Criteria `json:"criteria"`
}

// Met reports whether the stats satisfy the criteria. Unknown types never match.
func (c Criteria) Met(s passport.Stats) bool {
	switch c.Type {
	case CriteriaEventCount:
		return s.TotalEvents >= c.Target
	case CriteriaCountryCount:
		return s.CountryCount() >= c.Target
	case CriteriaEventType:
		return s.EventTypeCount(c.EventTypes...) >= c.Target
	case CriteriaTierReached:
		want := c.Tier.Ordinal()
		return want >= 0 && s.CurrentTier.Ordinal() >= want
	default:
		return false
	}
}

// Evaluate returns the definitions newly satisfied by stats, skipping ids in
// unlocked, sorted by id. It runs a single pass: unlocks found here do not
// feed back into the stats.
func Evaluate(defs []Achievement, s passport.Stats, unlocked []string) []Achievement {
	have := make(map[string]struct{}, len(unlocked))
	for _, id := range unlocked {
		have[id] = struct{}{}
	}

	var out []Achievement
	for _, def := range defs {
		if _, ok := have[def.ID]; ok {
			continue
		}
		if def.Criteria.Met(s) {
			out = append(out, def)
			have[def.ID] = struct{}{}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type Progress struct {
	Current int `json:"current"`
	Target  int `json:"target"`
	Percent int `json:"percent"`
}

// ProgressFor measures TIER_REACHED in tier ordinals.
func ProgressFor(c Criteria, s passport.Stats) Progress {
	var p Progress
	switch c.Type {
	case CriteriaEventCount:
		p.Current, p.Target = s.TotalEvents, c.Target
	case CriteriaCountryCount:
		p.Current, p.Target = s.CountryCount(), c.Target
	case CriteriaEventType:
		p.Current, p.Target = s.EventTypeCount(c.EventTypes...), c.Target
	case CriteriaTierReached:
		p.Current, p.Target = s.CurrentTier.Ordinal(), c.Tier.Ordinal()
		if p.Current < 0 {
			p.Current = 0
		}
	}

	if p.Target <= 0 {
		if c.Met(s) {
			p.Percent = 100
		}
		return p
	}
	p.Percent = min(100*max(p.Current, 0)/p.Target, 100)
	return p
}

type AchievementWithStatus struct {
	Achievement
	Unlocked bool     `json:"unlocked"`
	Progress Progress `json:"progress"`
}

// WithStatus annotates every definition, keeping catalogue order.
func WithStatus(defs []Achievement, s passport.Stats, unlocked []string) []AchievementWithStatus {
	have := make(map[string]struct{}, len(unlocked))
	for _, id := range unlocked {
		have[id] = struct{}{}
	}
	out := make([]AchievementWithStatus, 0, len(defs))
	for _, def := range defs {
		_, ok := have[def.ID]
		prog := ProgressFor(def.Criteria, s)
		if ok {
			prog.Percent = 100
		}
		out = append(out, AchievementWithStatus{Achievement: def, Unlocked: ok, Progress: prog})
	}
	return out
}

// TotalPoints sums points over the given achievements.
func TotalPoints(defs []Achievement) int {
	total := 0
	for _, d := range defs {
		total += d.Points
	}
	return total
}
