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

type AppointmentHandler struct {
	repo    repository.AppointmentRepository
	manager scheduling.Manager
	logger  zerolog.Logger
}

func NewAppointmentHandler(repo repository.AppointmentRepository, manager scheduling.Manager, logger zerolog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		repo:    repo,
		manager: manager,
		logger:  logger.With().Str("handler", "appointment").Logger(),
	}
}

type appointmentPayload struct {
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	var payload appointmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.ScheduledAt.IsZero() {
		http.Error(w, "scheduled_at is required", http.StatusBadRequest)
		return
	}

	appointment, err := h.repo.Create(r.Context(), models.Appointment{
		UserID:      userID,
		Title:       payload.Title,
		Location:    payload.Location,
		ScheduledAt: payload.ScheduledAt,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create appointment")
		http.Error(w, "Failed to create appointment", http.StatusInternalServerError)
		return
	}

	if _, err := h.manager.OnAppointmentScheduled(r.Context(), appointment); err != nil {
		h.logger.Error().Err(err).Str("appointment_id", appointment.ID).Msg("failed to seed appointment reminder")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, appointment)
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	appointments, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list appointments")
		http.Error(w, "Failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"appointments": appointments})
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	appointmentID := mux.Vars(r)["appointmentID"]

	existing, err := h.repo.GetByID(r.Context(), appointmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload appointmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	existing.Title = payload.Title
	existing.Location = payload.Location
	if !payload.ScheduledAt.IsZero() {
		existing.ScheduledAt = payload.ScheduledAt
	}

	updated, err := h.repo.Update(r.Context(), existing)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.manager.OnAppointmentScheduled(r.Context(), updated); err != nil {
		h.logger.Error().Err(err).Str("appointment_id", appointmentID).Msg("failed to reschedule appointment reminder")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	appointmentID := mux.Vars(r)["appointmentID"]

	cancelled, err := h.repo.Cancel(r.Context(), appointmentID)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.manager.OnAppointmentCancelled(r.Context(), appointmentID); err != nil {
		h.logger.Error().Err(err).Str("appointment_id", appointmentID).Msg("failed to cancel appointment reminder")
		http.Error(w, "Failed to cancel appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cancelled)
}
