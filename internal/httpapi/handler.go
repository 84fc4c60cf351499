package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/focusnest/progression-service/internal/notify"
	"github.com/focusnest/progression-service/internal/platform/apierror"
	"github.com/focusnest/progression-service/internal/platform/auth"
	"github.com/focusnest/progression-service/internal/platform/logging"
	"github.com/focusnest/progression-service/internal/progression"
	"github.com/focusnest/progression-service/internal/workout"
)

const (
	serviceTimeout        = 10 * time.Second
	maxCreatePayloadBytes = 1 << 20 // 1MB
)

type handler struct {
	workouts    *workout.Service
	progression *progression.Service
	inbox       *notify.Inbox
	logger      *slog.Logger
}

type createWorkoutRequest struct {
	Date      *time.Time         `json:"date"`
	Exercises []workout.Exercise `json:"exercises"`
}

type createWorkoutResponse struct {
	Workout     workout.Record          `json:"workout"`
	Progression progression.SyncResult `json:"progression"`
}

// RegisterRoutes mounts the workout, progression and notification endpoints.
func RegisterRoutes(r chi.Router, workouts *workout.Service, prog *progression.Service, inbox *notify.Inbox, logger *slog.Logger) {
	h := &handler{workouts: workouts, progression: prog, inbox: inbox, logger: logger}
	r.Route("/v1/workouts", func(r chi.Router) {
		r.Get("/", h.listWorkouts)
		r.Post("/", h.createWorkout)
	})
	r.Route("/v1/progression", func(r chi.Router) {
		r.Get("/me", h.getProfile)
		r.Get("/levels", h.listLevels)
	})
	r.Get("/v1/notifications/me", h.listNotifications)
}

func (h *handler) createWorkout(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		writeError(w, r, apierror.CodeUnauthorized, "missing user ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCreatePayloadBytes)
	var req createWorkoutRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, apierror.CodeBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	record, err := h.workouts.Log(ctx, workout.CreateInput{UserID: userID, Date: req.Date, Exercises: req.Exercises})
	if err != nil {
		h.respondServiceError(w, r, userID, err)
		return
	}

	result, err := h.progression.Sync(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, userID, err)
		return
	}

	writeJSON(w, http.StatusCreated, createWorkoutResponse{Workout: record, Progression: result})
}

func (h *handler) listWorkouts(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		writeError(w, r, apierror.CodeUnauthorized, "missing user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	records, err := h.workouts.List(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, userID, err)
		return
	}
	if records == nil {
		records = []workout.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": records})
}

func (h *handler) getProfile(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		writeError(w, r, apierror.CodeUnauthorized, "missing user ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	view, err := h.progression.Profile(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handler) listLevels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"levels": h.progression.Levels()})
}

func (h *handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		writeError(w, r, apierror.CodeUnauthorized, "missing user ID")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": h.inbox.List(userID)})
}

func (h *handler) respondServiceError(w http.ResponseWriter, r *http.Request, userID string, err error) {
	switch {
	case errors.Is(err, workout.ErrInvalidInput):
		msg := strings.TrimSpace(err.Error())
		if i := strings.Index(msg, ":"); i >= 0 {
			msg = strings.TrimSpace(msg[i+1:])
		}
		writeError(w, r, apierror.CodeBadRequest, msg)
	case errors.Is(err, workout.ErrConflict):
		writeError(w, r, apierror.CodeConflict, "workout already exists")
	case errors.Is(err, workout.ErrMissingUserID), errors.Is(err, progression.ErrMissingUserID):
		writeError(w, r, apierror.CodeUnauthorized, "missing user ID")
	default:
		logging.WithUser(logging.WithRequestID(r.Context(), h.logger), userID).
			Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		writeError(w, r, apierror.CodeInternal, "internal server error")
	}
}

// requestUserID prefers the authenticated subject and falls back to the
// gateway-provided header.
func requestUserID(r *http.Request) string {
	if user, ok := auth.PrincipalFrom(r.Context()); ok && user.UserID != "" {
		return user.UserID
	}
	if v := r.Header.Get(auth.UserHeader); v != "" {
		return v
	}
	return r.Header.Get("x-user-id")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, code, message string) {
	writeJSON(w, apierror.ToStatusCode(code), apierror.ErrorResponse{
		Code:      code,
		Error:     message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
