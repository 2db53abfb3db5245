package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/evercare/carelink-api/internal/authz"
	"github.com/evercare/carelink-api/internal/delivery"
	"github.com/evercare/carelink-api/internal/models"
)

type NotificationHandler struct {
	service delivery.Service
	logger  zerolog.Logger
}

func NewNotificationHandler(service delivery.Service, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("handler", "notification").Logger(),
	}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	limit := 25
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	notifications, err := h.service.ListRecent(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list notifications")
		http.Error(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
	})
}

func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	notifID := strings.TrimSpace(mux.Vars(r)["notificationID"])
	notif, err := h.service.GetByID(r.Context(), notifID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notif)
}

func (h *NotificationHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.service.MarkDelivered)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.service.MarkRead)
}

func (h *NotificationHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.service.Acknowledge)
}

func (h *NotificationHandler) Retry(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.service.Retry)
}

func (h *NotificationHandler) advance(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, notificationID string) (models.Notification, error)) {
	notifID := strings.TrimSpace(mux.Vars(r)["notificationID"])
	if notifID == "" {
		http.Error(w, "Notification ID is required", http.StatusBadRequest)
		return
	}

	notif, err := op(r.Context(), notifID)
	if err != nil {
		h.logger.Warn().Err(err).Str("notification_id", notifID).Msg("notification transition rejected")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notif)
}
