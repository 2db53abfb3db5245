package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/evercare/carelink-api/internal/authz"
	"github.com/evercare/carelink-api/internal/repository"
)

// ReportHandler serves the read-only dashboard aggregates. It has no
// mutation rights over reminders or notifications.
type ReportHandler struct {
	reminders repository.ReminderRepository
	logger    zerolog.Logger
}

func NewReportHandler(reminders repository.ReminderRepository, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reminders: reminders,
		logger:    logger.With().Str("handler", "report").Logger(),
	}
}

func (h *ReportHandler) Adherence(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now
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

	stats, err := h.reminders.AdherenceStats(r.Context(), userID, from, to, now)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to compute adherence stats")
		http.Error(w, "Failed to compute adherence stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"from":  from,
		"to":    to,
		"stats": stats,
	})
}
