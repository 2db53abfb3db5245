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

// MedicationHandler is the source entity change feed: every committed
// medication change is handed to the reminder lifecycle manager
// synchronously.
type MedicationHandler struct {
	repo    repository.MedicationRepository
	manager scheduling.Manager
	logger  zerolog.Logger
}

func NewMedicationHandler(repo repository.MedicationRepository, manager scheduling.Manager, logger zerolog.Logger) *MedicationHandler {
	return &MedicationHandler{
		repo:    repo,
		manager: manager,
		logger:  logger.With().Str("handler", "medication").Logger(),
	}
}

type medicationPayload struct {
	Name      string                `json:"name"`
	Dosage    string                `json:"dosage"`
	Notes     string                `json:"notes"`
	StartDate *time.Time            `json:"start_date"`
	Rule      models.RecurrenceRule `json:"recurrence_rule"`
}

func (h *MedicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	var payload medicationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := payload.Rule.Validate(); err != nil {
		writeError(w, err)
		return
	}

	startDate := time.Now()
	if payload.StartDate != nil {
		startDate = *payload.StartDate
	}

	medication, err := h.repo.Create(r.Context(), models.Medication{
		UserID:    userID,
		Name:      payload.Name,
		Dosage:    payload.Dosage,
		Notes:     payload.Notes,
		Status:    models.MedicationActive,
		StartDate: startDate,
		Rule:      payload.Rule,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create medication")
		http.Error(w, "Failed to create medication", http.StatusInternalServerError)
		return
	}

	if _, err := h.manager.OnMedicationCreated(r.Context(), medication); err != nil {
		h.logger.Error().Err(err).Str("medication_id", medication.ID).Msg("failed to seed reminders")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, medication)
}

func (h *MedicationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	medications, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list medications")
		http.Error(w, "Failed to list medications", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"medications": medications})
}

func (h *MedicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	medicationID := mux.Vars(r)["medicationID"]
	medication, err := h.repo.GetByID(r.Context(), medicationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, medication)
}

func (h *MedicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	medicationID := mux.Vars(r)["medicationID"]

	existing, err := h.repo.GetByID(r.Context(), medicationID)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload medicationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	// Validate before persisting so an invalid rule never reaches the
	// cancel-then-regenerate sequence.
	if err := payload.Rule.Validate(); err != nil {
		writeError(w, err)
		return
	}

	existing.Name = payload.Name
	existing.Dosage = payload.Dosage
	existing.Notes = payload.Notes
	existing.Rule = payload.Rule
	if payload.StartDate != nil {
		existing.StartDate = *payload.StartDate
	}

	updated, err := h.repo.Update(r.Context(), existing)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.manager.OnMedicationUpdated(r.Context(), updated); err != nil {
		h.logger.Error().Err(err).Str("medication_id", medicationID).Msg("failed to regenerate reminders")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *MedicationHandler) Pause(w http.ResponseWriter, r *http.Request) {
	medicationID := mux.Vars(r)["medicationID"]

	medication, err := h.repo.SetStatus(r.Context(), medicationID, models.MedicationPaused)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.manager.OnMedicationPaused(r.Context(), medicationID); err != nil {
		h.logger.Error().Err(err).Str("medication_id", medicationID).Msg("failed to cancel reminders on pause")
		http.Error(w, "Failed to pause medication", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, medication)
}

func (h *MedicationHandler) Resume(w http.ResponseWriter, r *http.Request) {
	medicationID := mux.Vars(r)["medicationID"]

	medication, err := h.repo.SetStatus(r.Context(), medicationID, models.MedicationActive)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.manager.OnMedicationResumed(r.Context(), medication); err != nil {
		h.logger.Error().Err(err).Str("medication_id", medicationID).Msg("failed to regenerate reminders on resume")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, medication)
}

func (h *MedicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	medicationID := mux.Vars(r)["medicationID"]

	if err := h.repo.Delete(r.Context(), medicationID); err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.manager.OnMedicationDeleted(r.Context(), medicationID); err != nil {
		h.logger.Error().Err(err).Str("medication_id", medicationID).Msg("failed to cancel reminders on delete")
		http.Error(w, "Failed to delete medication", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
