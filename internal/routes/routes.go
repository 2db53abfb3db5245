package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/evercare/carelink-api/internal/authz"
	"github.com/evercare/carelink-api/internal/handlers"
	"github.com/evercare/carelink-api/internal/models"
)

// NewRouter sets up the API routes.
func NewRouter(
	auth *handlers.AuthHandler,
	medication *handlers.MedicationHandler,
	appointment *handlers.AppointmentHandler,
	reminder *handlers.ReminderHandler,
	notification *handlers.NotificationHandler,
	report *handlers.ReportHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public auth endpoints
	router.HandleFunc("/api/signup", auth.SignUp).Methods(http.MethodPost)
	router.HandleFunc("/api/login", auth.Login).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.JWTMiddleware)

	// Medications: mutations require the caregiver tier.
	api.Handle("/medications", authz.RequireRoleHandler(models.RoleCaregiver, http.HandlerFunc(medication.Create))).Methods(http.MethodPost)
	api.HandleFunc("/medications", medication.List).Methods(http.MethodGet)
	api.HandleFunc("/medications/{medicationID}", medication.Get).Methods(http.MethodGet)
	api.Handle("/medications/{medicationID}", authz.RequireRoleHandler(models.RoleCaregiver, http.HandlerFunc(medication.Update))).Methods(http.MethodPut)
	api.Handle("/medications/{medicationID}/pause", authz.RequireRoleHandler(models.RoleCaregiver, http.HandlerFunc(medication.Pause))).Methods(http.MethodPost)
	api.Handle("/medications/{medicationID}/resume", authz.RequireRoleHandler(models.RoleCaregiver, http.HandlerFunc(medication.Resume))).Methods(http.MethodPost)
	api.Handle("/medications/{medicationID}", authz.RequireRoleHandler(models.RoleCaregiver, http.HandlerFunc(medication.Delete))).Methods(http.MethodDelete)

	// Appointments
	api.Handle("/appointments", authz.RequireRoleHandler(models.RoleCaregiver, http.HandlerFunc(appointment.Create))).Methods(http.MethodPost)
	api.HandleFunc("/appointments", appointment.List).Methods(http.MethodGet)
	api.Handle("/appointments/{appointmentID}", authz.RequireRoleHandler(models.RoleCaregiver, http.HandlerFunc(appointment.Update))).Methods(http.MethodPut)
	api.Handle("/appointments/{appointmentID}/cancel", authz.RequireRoleHandler(models.RoleCaregiver, http.HandlerFunc(appointment.Cancel))).Methods(http.MethodPost)

	// Reminders: completion and snooze are open to both tiers.
	api.HandleFunc("/reminders", reminder.List).Methods(http.MethodGet)
	api.HandleFunc("/reminders/{reminderID}/done", reminder.MarkDone).Methods(http.MethodPost)
	api.HandleFunc("/reminders/{reminderID}/snooze", reminder.Snooze).Methods(http.MethodPost)

	// Notifications
	api.HandleFunc("/notifications", notification.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{notificationID}", notification.Get).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{notificationID}/delivered", notification.MarkDelivered).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{notificationID}/read", notification.MarkRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{notificationID}/acknowledge", notification.Acknowledge).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{notificationID}/retry", notification.Retry).Methods(http.MethodPost)

	// Reports
	api.HandleFunc("/reports/adherence", report.Adherence).Methods(http.MethodGet)

	return router
}
