// Package dispatch is the clock side of the system: it watches for pending
// reminders whose scheduled time has arrived and hands each one to the
// delivery service exactly once.
package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/evercare/carelink-api/internal/delivery"
	"github.com/evercare/carelink-api/internal/models"
	"github.com/evercare/carelink-api/internal/repository"
)

const (
	DefaultPollInterval = 30 * time.Second
	defaultBatchSize    = 100
)

type Dispatcher struct {
	reminders      repository.ReminderRepository
	users          repository.UserRepository
	delivery       delivery.Service
	pollInterval   time.Duration
	defaultChannel models.DeliveryChannel
	logger         zerolog.Logger
	stopChan       chan struct{}
}

func NewDispatcher(reminders repository.ReminderRepository, users repository.UserRepository, deliverySvc delivery.Service, pollInterval time.Duration, defaultChannel models.DeliveryChannel, logger zerolog.Logger) *Dispatcher {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if defaultChannel == "" {
		defaultChannel = models.ChannelInApp
	}
	return &Dispatcher{
		reminders:      reminders,
		users:          users,
		delivery:       deliverySvc,
		pollInterval:   pollInterval,
		defaultChannel: defaultChannel,
		logger:         logger.With().Str("component", "dispatcher").Logger(),
		stopChan:       make(chan struct{}),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
	d.logger.Info().Dur("poll_interval", d.pollInterval).Msg("dispatcher started")
}

func (d *Dispatcher) Stop() {
	close(d.stopChan)
	d.logger.Info().Msg("dispatcher stopped")
}

func (d *Dispatcher) run(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.sweep(ctx)
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// sweep fires every due reminder that has no notification yet. The unnotified
// query is the dedup guard: a reminder that already produced a notification
// is never handed to the channel again.
func (d *Dispatcher) sweep(ctx context.Context) {
	var due []models.Reminder
	backoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var listErr error
		due, listErr = d.reminders.ListDueUnnotified(ctx, time.Now(), defaultBatchSize)
		return retry.RetryableError(listErr)
	})
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to list due reminders")
		return
	}

	for _, reminder := range due {
		recipient, err := d.users.GetUserByID(reminder.UserID)
		if err != nil {
			d.logger.Error().Err(err).
				Str("reminder_id", reminder.ID).
				Str("user_id", reminder.UserID).
				Msg("failed to resolve reminder recipient")
			continue
		}

		notif, err := d.delivery.Dispatch(ctx, reminder, recipient, d.defaultChannel)
		if err != nil {
			d.logger.Error().Err(err).
				Str("reminder_id", reminder.ID).
				Msg("failed to dispatch reminder")
			continue
		}
		d.logger.Info().
			Str("reminder_id", reminder.ID).
			Str("notification_id", notif.ID).
			Str("status", string(notif.Status)).
			Msg("reminder fired")
	}
}
