package user

import (
	"encoding/json"
	"strings"
)

type ClerkWebhookEvent struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

type ClerkEmailAddress struct {
	EmailAddress string `json:"email_address"`
}

type ClerkUserData struct {
	ID              string              `json:"id"`
	Username        string              `json:"username"`
	FirstName       string              `json:"first_name"`
	LastName        string              `json:"last_name"`
	ImageURL        string              `json:"image_url"`
	ProfileImageURL string              `json:"profile_image_url"`
	EmailAddresses  []ClerkEmailAddress `json:"email_addresses"`
}

// DisplayName prefers the username, then the full name, then the local part
// of the first email address.
func (d ClerkUserData) DisplayName() string {
	if d.Username != "" {
		return d.Username
	}
	if name := strings.TrimSpace(d.FirstName + " " + d.LastName); name != "" {
		return name
	}
	if len(d.EmailAddresses) > 0 {
		local, _, _ := strings.Cut(d.EmailAddresses[0].EmailAddress, "@")
		return local
	}
	return ""
}

func (d ClerkUserData) Picture() *string {
	url := d.ImageURL
	if url == "" {
		url = d.ProfileImageURL
	}
	if url == "" {
		return nil
	}
	return &url
}

func (d ClerkUserData) ToUser() *User {
	return &User{ID: d.ID, DisplayName: d.DisplayName(), ProfilePictureURL: d.Picture()}
}
