package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socaPassportAPI/internal/passport"
	"socaPassportAPI/middleware"
	"socaPassportAPI/services"
)

// tokenIsUser treats the bearer token as the user id.
func tokenIsUser(ctx context.Context, token string) (string, error) {
	if token == "bad" {
		return "", errors.New("expired")
	}
	return token, nil
}

type downRegistry struct{}

func (downRegistry) Resolve(ctx context.Context, accessCode string) (passport.Event, error) {
	return passport.Event{}, errors.New("connection refused")
}

// droppedEventRegistry resolves codes to an event id the store no longer has.
type droppedEventRegistry struct{}

func (droppedEventRegistry) Resolve(ctx context.Context, accessCode string) (passport.Event, error) {
	return passport.Event{
		ID: "5f1d8c7e-internal-id", AccessCode: accessCode, Title: "Dropped",
		CountryCode: "TT", EventType: passport.EventFete, IsActive: true,
	}, nil
}

func newTestRouter(t *testing.T, registry services.EventRegistry) (*mux.Router, *services.MemoryStore) {
	t.Helper()
	store := services.NewMemoryStore()
	store.AddEvent(passport.Event{
		ID: "ev-test", AccessCode: "TEST-001", Title: "Demo Test Event",
		CountryCode: "TT", EventType: passport.EventFete, IsActive: true,
	})
	store.AddEvent(passport.Event{
		ID: "ev-boat", AccessCode: "BOAT-VIBES", Title: "Soca on the Sea",
		CountryCode: "BB", EventType: passport.EventBoatRide, IsActive: true, TotalCheckins: 300,
	})
	if registry == nil {
		registry = store
	}

	svc := services.NewPassportService(store, store, services.NewBoundedRegistry(registry, time.Second))
	h := NewPassportHandler(svc, time.Second)

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1/passport").Subrouter()
	api.Use(middleware.Authenticate(tokenIsUser))
	h.Routes(api)
	return r, store
}

func do(t *testing.T, r http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+userID)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCheckinEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := do(t, r, "POST", "/api/v1/passport/checkin", "user_a", `{"accessCode":"test-001"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[struct {
		Stamp struct {
			EditionNumber int    `json:"editionNumber"`
			Rarity        string `json:"rarity"`
		} `json:"stamp"`
		CreditsEarned   int  `json:"creditsEarned"`
		BonusCredits    int  `json:"bonusCredits"`
		TierChanged     bool `json:"tierChanged"`
		NewAchievements []struct {
			ID string `json:"id"`
		} `json:"newAchievements"`
		NewTier *string `json:"newTier"`
	}](t, rec)
	assert.Equal(t, 1, res.Stamp.EditionNumber)
	assert.Equal(t, "LEGENDARY", res.Stamp.Rarity)
	assert.Equal(t, 120, res.CreditsEarned)
	assert.Equal(t, 50, res.BonusCredits)
	assert.False(t, res.TierChanged)
	assert.Nil(t, res.NewTier)
	require.Len(t, res.NewAchievements, 1)
	assert.Equal(t, "first_stamp", res.NewAchievements[0].ID)

	rec = do(t, r, "POST", "/api/v1/passport/checkin", "user_a", `{"accessCode":"TEST-001"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already-exists", decode[map[string]string](t, rec)["code"])
}

func TestCheckinEndpointErrors(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	tests := []struct {
		name   string
		user   string
		body   string
		status int
		code   string
	}{
		{"unknown code", "user_a", `{"accessCode":"NOPE-123"}`, http.StatusNotFound, "not-found"},
		{"malformed code", "user_a", `{"accessCode":"no way!"}`, http.StatusBadRequest, "invalid-argument"},
		{"empty code", "user_a", `{"accessCode":""}`, http.StatusBadRequest, "invalid-argument"},
		{"bad json", "user_a", `{accessCode`, http.StatusBadRequest, "invalid-argument"},
		{"no session", "", `{"accessCode":"TEST-001"}`, http.StatusUnauthorized, "unauthenticated"},
		{"expired session", "bad", `{"accessCode":"TEST-001"}`, http.StatusUnauthorized, "unauthenticated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, "POST", "/api/v1/passport/checkin", tt.user, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[map[string]string](t, rec)["code"])
		})
	}
}

func TestCheckinEndpointUnavailable(t *testing.T) {
	r, _ := newTestRouter(t, downRegistry{})

	rec := do(t, r, "POST", "/api/v1/passport/checkin", "user_a", `{"accessCode":"TEST-001"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "unavailable", body["code"])
	assert.NotContains(t, body["error"], "connection refused")
}

func TestCheckinEndpointHidesEventID(t *testing.T) {
	r, _ := newTestRouter(t, droppedEventRegistry{})

	rec := do(t, r, "POST", "/api/v1/passport/checkin", "user_a", `{"accessCode":"TEST-001"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "not-found", body["code"])
	assert.NotContains(t, body["error"], "5f1d8c7e")
}

func TestProfileEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := do(t, r, "GET", "/api/v1/passport/profile", "user_new", "")
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[struct {
		Profile struct {
			UserID       string `json:"userId"`
			TotalCredits int    `json:"totalCredits"`
			CurrentTier  string `json:"currentTier"`
		} `json:"profile"`
		TierProgress struct {
			NextTier          string `json:"nextTier"`
			CreditsToNextTier int    `json:"creditsToNextTier"`
		} `json:"tierProgress"`
		Achievements []struct {
			ID       string `json:"id"`
			Unlocked bool   `json:"unlocked"`
		} `json:"achievements"`
	}](t, rec)
	assert.Equal(t, "user_new", res.Profile.UserID)
	assert.Zero(t, res.Profile.TotalCredits)
	assert.Equal(t, "BRONZE", res.Profile.CurrentTier)
	assert.Equal(t, "SILVER", res.TierProgress.NextTier)
	assert.Equal(t, 500, res.TierProgress.CreditsToNextTier)
	assert.Len(t, res.Achievements, 5)
}

func TestStampsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	for _, code := range []string{"TEST-001", "BOAT-VIBES"} {
		rec := do(t, r, "POST", "/api/v1/passport/checkin", "user_a", fmt.Sprintf(`{"accessCode":%q}`, code))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	type stampsBody struct {
		Stamps []struct {
			ID     string `json:"id"`
			Rarity string `json:"rarity"`
		} `json:"stamps"`
	}

	rec := do(t, r, "GET", "/api/v1/passport/stamps", "user_a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[stampsBody](t, rec).Stamps, 2)

	rec = do(t, r, "GET", "/api/v1/passport/stamps?rarity=common", "user_a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	filtered := decode[stampsBody](t, rec).Stamps
	require.Len(t, filtered, 1)
	assert.Equal(t, "COMMON", filtered[0].Rarity)

	rec = do(t, r, "GET", "/api/v1/passport/stamps?limit=1&offset=5", "user_a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[stampsBody](t, rec).Stamps)

	for _, q := range []string{"?limit=500", "?offset=-1", "?limit=abc", "?rarity=shiny"} {
		rec = do(t, r, "GET", "/api/v1/passport/stamps"+q, "user_a", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}

	rec = do(t, r, "PUT", "/api/v1/passport/stamps/"+filtered[0].ID+"/favorite", "user_a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["isFavorite"])

	rec = do(t, r, "PUT", "/api/v1/passport/stamps/"+filtered[0].ID+"/favorite", "user_b", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLeaderboardEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	for _, u := range []string{"user_a", "user_b"} {
		rec := do(t, r, "POST", "/api/v1/passport/checkin", u, `{"accessCode":"TEST-001"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, r, "POST", "/api/v1/passport/checkin", "user_b", `{"accessCode":"BOAT-VIBES"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, "GET", "/api/v1/passport/leaderboard?limit=1", "user_a", "")
	require.Equal(t, http.StatusOK, rec.Code)

	lb := decode[struct {
		Entries []struct {
			UserID string `json:"userId"`
			Rank   int    `json:"rank"`
		} `json:"entries"`
		UserPosition *struct {
			Rank int `json:"rank"`
		} `json:"userPosition"`
		TotalUsers int `json:"totalUsers"`
	}](t, rec)
	require.Len(t, lb.Entries, 1)
	assert.Equal(t, "user_b", lb.Entries[0].UserID)
	assert.Equal(t, 1, lb.Entries[0].Rank)
	require.NotNil(t, lb.UserPosition)
	assert.Equal(t, 2, lb.UserPosition.Rank)
	assert.Equal(t, 2, lb.TotalUsers)
}

func TestDevicesAndAchievementsEndpoints(t *testing.T) {
	r, store := newTestRouter(t, nil)

	rec := do(t, r, "POST", "/api/v1/passport/devices", "user_a", `{"token":"fcm-token-0001","platform":"ios"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	devices, err := store.DevicesFor(context.Background(), "user_a")
	require.NoError(t, err)
	assert.Len(t, devices, 1)

	rec = do(t, r, "POST", "/api/v1/passport/devices", "user_a", `{"token":"fcm-token-0001","platform":"blackberry"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, "GET", "/api/v1/passport/achievements", "user_a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string][]map[string]any](t, rec)
	assert.Len(t, body["achievements"], 5)
}
