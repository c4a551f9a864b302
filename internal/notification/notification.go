package notification

import (
	"fmt"
	"strconv"

	"socaPassportAPI/internal/achievement"
	"socaPassportAPI/internal/passport"
)

type NotificationType string

const (
	NotificationAchievement NotificationType = "achievement"
	NotificationTierUp      NotificationType = "tier_up"
)

type DeviceToken struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type Notification struct {
	UserID string
	Type   NotificationType
	Title  string
	Body   string
	Data   map[string]string
}

func AchievementUnlocked(userID string, a achievement.Achievement) *Notification {
	return &Notification{
		UserID: userID,
		Type:   NotificationAchievement,
		Title:  fmt.Sprintf("%s Achievement unlocked", a.Icon),
		Body:   fmt.Sprintf("%s: %s (+%d credits)", a.Name, a.Description, a.Points),
		Data: map[string]string{
			"type":          string(NotificationAchievement),
			"achievementId": a.ID,
			"points":        strconv.Itoa(a.Points),
		},
	}
}

func TierReached(userID string, tier passport.Tier) *Notification {
	return &Notification{
		UserID: userID,
		Type:   NotificationTierUp,
		Title:  "You ranked up!",
		Body:   fmt.Sprintf("Your passport is now %s tier.", tier),
		Data: map[string]string{
			"type": string(NotificationTierUp),
			"tier": string(tier),
		},
	}
}
