package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/evercare/carelink-api/internal/config"
	"github.com/evercare/carelink-api/internal/delivery"
	"github.com/evercare/carelink-api/internal/dispatch"
	"github.com/evercare/carelink-api/internal/handlers"
	"github.com/evercare/carelink-api/internal/middleware"
	"github.com/evercare/carelink-api/internal/migration"
	"github.com/evercare/carelink-api/internal/models"
	"github.com/evercare/carelink-api/internal/recurrence"
	"github.com/evercare/carelink-api/internal/repository"
	"github.com/evercare/carelink-api/internal/routes"
	"github.com/evercare/carelink-api/internal/scheduling"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config     *config.Config
	db         *sql.DB
	logger     zerolog.Logger
	delivery   delivery.Service
	scheduler  scheduling.Manager
	dispatcher *dispatch.Dispatcher
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	gooseAdapter := migration.NewGooseAdapter(logger)
	goose.SetLogger(gooseAdapter)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Repositories shared between the HTTP surface and the dispatcher.
	userRepo := repository.NewUserRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Delivery channels and the notification state machine.
	channels := buildChannels(cfg, userRepo, logger)
	deliveryService := delivery.NewService(notificationRepo, channels, cfg.Dispatch.AttemptTimeout, logger)

	// Reminder lifecycle manager over the occurrence generator.
	generator := recurrence.NewGenerator(cfg.Dispatch.HorizonDays)
	schedulingManager := scheduling.NewManager(reminderRepo, generator, logger)

	// Fire-time dispatcher.
	dispatcher := dispatch.NewDispatcher(
		reminderRepo,
		userRepo,
		deliveryService,
		cfg.Dispatch.PollInterval,
		models.DeliveryChannel(cfg.Dispatch.DefaultChannel),
		logger,
	)

	app := &application{
		config:     cfg,
		db:         db,
		logger:     logger,
		delivery:   deliveryService,
		scheduler:  schedulingManager,
		dispatcher: dispatcher,
	}

	dispatcher.Start(context.Background())

	// Initialize the HTTP router and middleware.
	router := app.initRouter()
	loggedRouter := middleware.RequestIDMiddleware(middleware.LoggingMiddleware(app.logger)(router))
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter() http.Handler {
	medicationRepo := repository.NewMedicationRepository(app.db)
	appointmentRepo := repository.NewAppointmentRepository(app.db)
	reminderRepo := repository.NewReminderRepository(app.db)

	authHandler := handlers.NewAuthHandler(app.db, app.config, app.logger)
	medicationHandler := handlers.NewMedicationHandler(medicationRepo, app.scheduler, app.logger)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentRepo, app.scheduler, app.logger)
	reminderHandler := handlers.NewReminderHandler(reminderRepo, app.scheduler, app.logger)
	notificationHandler := handlers.NewNotificationHandler(app.delivery, app.logger)
	reportHandler := handlers.NewReportHandler(reminderRepo, app.logger)

	return routes.NewRouter(authHandler, medicationHandler, appointmentHandler, reminderHandler, notificationHandler, reportHandler)
}

func buildChannels(cfg *config.Config, users repository.UserRepository, logger zerolog.Logger) delivery.Registry {
	inApp := delivery.NewInAppChannel(logger)
	push := delivery.NewPushChannel(cfg.Push, logger)
	sms := delivery.NewSMSChannel(cfg.SMS, logger)

	channels := []delivery.Channel{inApp, push, sms}
	if cfg.Email.SMTPHost != "" {
		email, err := delivery.NewEmailChannel(cfg.Email, users, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure email channel")
		}
		channels = append(channels, email)
	}
	return delivery.NewRegistry(channels...)
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		app.logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		app.logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		app.logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		app.logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		app.logger.Info().Msg("HTTP server shutdown complete.")
	}

	app.dispatcher.Stop()
}
