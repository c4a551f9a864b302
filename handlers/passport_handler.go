package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"socaPassportAPI/internal/passport"
	"socaPassportAPI/middleware"
	"socaPassportAPI/services"
)

type PassportHandler struct {
	passportService *services.PassportService
	timeout         time.Duration
}

func NewPassportHandler(passportService *services.PassportService, timeout time.Duration) *PassportHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PassportHandler{
		passportService: passportService,
		timeout:         timeout,
	}
}

// Routes mounts the passport endpoints on an already authenticated router.
func (h *PassportHandler) Routes(r *mux.Router) {
	r.HandleFunc("/checkin", h.Checkin).Methods("POST")
	r.HandleFunc("/profile", h.GetProfile).Methods("GET")
	r.HandleFunc("/stamps", h.GetStamps).Methods("GET")
	r.HandleFunc("/stamps/{stampID}/favorite", h.ToggleFavorite).Methods("PUT")
	r.HandleFunc("/leaderboard", h.GetLeaderboard).Methods("GET")
	r.HandleFunc("/devices", h.RegisterDevice).Methods("POST")
	r.HandleFunc("/achievements", h.GetAchievements).Methods("GET")
}

// Checkin claims a stamp for the posted access code.
func (h *PassportHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req passport.CheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid-argument", "Invalid request body")
		return
	}

	res, err := h.passportService.CheckIn(ctx, userID, req.AccessCode)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, res)
}

func (h *PassportHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	profile, err := h.passportService.GetProfile(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

func (h *PassportHandler) GetStamps(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var q passport.StampQuery
	query := r.URL.Query()
	var err error
	if q.Limit, err = intParam(query.Get("limit")); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid-argument", "limit must be a number")
		return
	}
	if q.Offset, err = intParam(query.Get("offset")); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid-argument", "offset must be a number")
		return
	}
	if raw := query.Get("rarity"); raw != "" {
		rarity, err := passport.ParseRarity(raw)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		q.Rarity = &rarity
	}

	stamps, err := h.passportService.GetStamps(ctx, userID, q)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"stamps": stamps})
}

func (h *PassportHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid-argument", "limit must be a number")
		return
	}

	lb, err := h.passportService.GetLeaderboard(ctx, userID, limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, lb)
}

func (h *PassportHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	stamp, err := h.passportService.ToggleFavorite(ctx, userID, mux.Vars(r)["stampID"])
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stamp)
}

func (h *PassportHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthenticated", "User not authenticated")
		return
	}

	var req passport.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid-argument", "Invalid request body")
		return
	}

	if err := h.passportService.RegisterDevice(ctx, userID, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

// GetAchievements lists the catalogue without per-user status.
func (h *PassportHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"achievements": h.passportService.Achievements()})
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// respondWithServiceError maps passport sentinels to a status and a stable
// code. Internal causes are logged and never sent to the client.
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, passport.ErrValidation):
		respondWithError(w, http.StatusBadRequest, "invalid-argument", err.Error())
	case errors.Is(err, passport.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "not-found", err.Error())
	case errors.Is(err, passport.ErrAlreadyCheckedIn):
		respondWithError(w, http.StatusConflict, "already-exists", "You already have a stamp for this event")
	case errors.Is(err, passport.ErrServiceUnavailable):
		zap.L().Warn("passport dependency unavailable", zap.Error(err))
		respondWithError(w, http.StatusServiceUnavailable, "unavailable", "Service temporarily unavailable, try again")
	default:
		zap.L().Error("passport request failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "internal", "Internal server error")
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error","code":"internal"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, map[string]string{"error": message, "code": code})
}
