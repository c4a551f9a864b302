package passport

import "time"

type EventType string

const (
	EventFete         EventType = "fete"
	EventJouvert      EventType = "jouvert"
	EventBreakfast    EventType = "breakfast"
	EventEarlyMorning EventType = "early_morning"
	EventBoatRide     EventType = "boat_ride"
	EventCarnival     EventType = "carnival"
	EventConcert      EventType = "concert"
)

// Event is owned by promoters; the passport engine only reads it.
type Event struct {
	ID            string    `json:"id"`
	AccessCode    string    `json:"accessCode"`
	Title         string    `json:"title"`
	CountryCode   string    `json:"countryCode"`
	Location      string    `json:"location,omitempty"`
	Circuit       string    `json:"carnivalCircuit,omitempty"`
	Organizer     string    `json:"organizerName,omitempty"`
	EventType     EventType `json:"eventType"`
	IsActive      bool      `json:"isActive"`
	IsFlagship    bool      `json:"isFlagship"`
	StartTime     time.Time `json:"startTime"`
	MaxCapacity   *int      `json:"maxCapacity,omitempty"`
	TotalCheckins int       `json:"totalCheckins"`
}
