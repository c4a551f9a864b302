package user

import "time"

// User is the display identity shown next to a passport on the leaderboard.
// ID is the Clerk user id, which is also the passport user id.
type User struct {
	ID                string    `json:"id"`
	DisplayName       string    `json:"displayName"`
	ProfilePictureURL *string   `json:"profilePictureUrl,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
