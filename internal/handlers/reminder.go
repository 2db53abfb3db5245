package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/evercare/carelink-api/internal/authz"
	"github.com/evercare/carelink-api/internal/models"
	"github.com/evercare/carelink-api/internal/repository"
	"github.com/evercare/carelink-api/internal/scheduling"
)

type ReminderHandler struct {
	repo    repository.ReminderRepository
	manager scheduling.Manager
	logger  zerolog.Logger
}

func NewReminderHandler(repo repository.ReminderRepository, manager scheduling.Manager, logger zerolog.Logger) *ReminderHandler {
	return &ReminderHandler{
		repo:    repo,
		manager: manager,
		logger:  logger.With().Str("handler", "reminder").Logger(),
	}
}

// reminderView wraps a reminder with its read-time effective status so
// clients never recompute the missed check themselves.
type reminderView struct {
	models.Reminder
	EffectiveStatus models.ReminderStatus `json:"effective_status"`
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	from := now.AddDate(0, 0, -7)
	to := now.AddDate(0, 0, 30)
	if raw := r.URL.Query().Get("from"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			from = parsed
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			to = parsed
		}
	}

	reminders, err := h.repo.ListByUser(r.Context(), userID, from, to)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list reminders")
		http.Error(w, "Failed to list reminders", http.StatusInternalServerError)
		return
	}

	views := make([]reminderView, 0, len(reminders))
	for _, reminder := range reminders {
		views = append(views, reminderView{Reminder: reminder, EffectiveStatus: reminder.EffectiveStatus(now)})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reminders": views})
}

func (h *ReminderHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	reminderID := mux.Vars(r)["reminderID"]

	reminder, err := h.manager.MarkDone(r.Context(), reminderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reminder)
}

func (h *ReminderHandler) Snooze(w http.ResponseWriter, r *http.Request) {
	reminderID := mux.Vars(r)["reminderID"]

	var payload struct {
		Minutes int `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	reminder, err := h.manager.Snooze(r.Context(), reminderID, payload.Minutes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reminder)
}
