package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CheckinsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passport_checkins_total",
			Help: "Check-in attempts by outcome",
		},
		[]string{"outcome"},
	)
	StampsIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passport_stamps_issued_total",
			Help: "Stamps issued by rarity",
		},
		[]string{"rarity"},
	)
	TierUps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passport_tier_ups_total",
			Help: "Tier promotions by new tier",
		},
		[]string{"tier"},
	)
	AchievementUnlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passport_achievement_unlocks_total",
			Help: "Achievement unlocks by achievement id",
		},
		[]string{"achievement"},
	)
	CheckinDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "passport_checkin_duration_seconds",
			Help:    "Latency of the check-in orchestration",
			Buckets: prometheus.DefBuckets,
		},
	)
	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "passport_notifications_total",
			Help: "Push notification jobs by result",
		},
		[]string{"result"},
	)
)

// Check-in outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeDuplicate    = "duplicate"
	OutcomeNotFound     = "not_found"
	OutcomeInvalid      = "invalid"
	OutcomeUnavailable  = "unavailable"
	OutcomeInternalFail = "error"
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(CheckinsTotal, StampsIssued, TierUps, AchievementUnlocks, CheckinDuration, NotificationsSent)
}
