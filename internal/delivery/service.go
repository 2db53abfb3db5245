package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/evercare/carelink-api/internal/models"
	"github.com/evercare/carelink-api/internal/repository"
)

// DefaultAttemptTimeout bounds a single channel invocation. A timeout is a
// failed attempt, never a notification stuck in retrying.
const DefaultAttemptTimeout = 10 * time.Second

type Service interface {
	// Dispatch creates exactly one notification for a fired reminder and
	// resolves its first delivery attempt.
	Dispatch(ctx context.Context, reminder models.Reminder, recipient models.User, channel models.DeliveryChannel) (models.Notification, error)
	MarkDelivered(ctx context.Context, notificationID string) (models.Notification, error)
	MarkRead(ctx context.Context, notificationID string) (models.Notification, error)
	Acknowledge(ctx context.Context, notificationID string) (models.Notification, error)
	// Retry re-attempts delivery of a failed notification. There is no cap
	// on retries; each failure appends another attempt.
	Retry(ctx context.Context, notificationID string) (models.Notification, error)
	GetByID(ctx context.Context, notificationID string) (models.Notification, error)
	ListRecent(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
}

type service struct {
	repo           repository.NotificationRepository
	channels       Registry
	attemptTimeout time.Duration
	logger         zerolog.Logger
	now            func() time.Time
}

func NewService(repo repository.NotificationRepository, channels Registry, attemptTimeout time.Duration, logger zerolog.Logger) Service {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	return &service{
		repo:           repo,
		channels:       channels,
		attemptTimeout: attemptTimeout,
		logger:         logger.With().Str("component", "delivery_service").Logger(),
		now:            time.Now,
	}
}

func (s *service) Dispatch(ctx context.Context, reminder models.Reminder, recipient models.User, channel models.DeliveryChannel) (models.Notification, error) {
	notif, err := s.repo.Create(ctx, repository.CreateNotificationParams{
		SourceReminderID: reminder.ID,
		Title:            reminder.Title,
		Message:          fmt.Sprintf("Reminder: %s at %s", reminder.Title, reminder.ScheduledTime.Format("15:04")),
		Channel:          channel,
		RecipientType:    models.RecipientTypeFor(recipient.Roles),
		RecipientID:      recipient.ID,
	})
	if err != nil {
		return models.Notification{}, err
	}

	deliverErr := s.attempt(ctx, notif)
	return s.resolveAttempt(ctx, notif, 1, deliverErr)
}

func (s *service) MarkDelivered(ctx context.Context, notificationID string) (models.Notification, error) {
	return s.transition(ctx, notificationID, models.NotificationDelivered, func(n *models.Notification, now time.Time) {
		n.DeliveredAt = &now
		n.FailureReason = nil
	})
}

func (s *service) MarkRead(ctx context.Context, notificationID string) (models.Notification, error) {
	return s.transition(ctx, notificationID, models.NotificationRead, func(n *models.Notification, now time.Time) {
		n.ReadAt = &now
	})
}

func (s *service) Acknowledge(ctx context.Context, notificationID string) (models.Notification, error) {
	return s.transition(ctx, notificationID, models.NotificationAcknowledged, func(n *models.Notification, now time.Time) {
		n.AcknowledgedAt = &now
	})
}

func (s *service) Retry(ctx context.Context, notificationID string) (models.Notification, error) {
	notif, err := s.transition(ctx, notificationID, models.NotificationRetrying, nil)
	if err != nil {
		return models.Notification{}, err
	}

	attemptNumber := len(notif.DeliveryAttempts) + 1
	attempt, err := s.repo.AppendAttempt(ctx, models.DeliveryAttempt{
		NotificationID: notif.ID,
		AttemptNumber:  attemptNumber,
		Outcome:        models.OutcomePending,
		Channel:        notif.DeliveryChannel,
	})
	if err != nil {
		return models.Notification{}, err
	}
	notif.DeliveryAttempts = append(notif.DeliveryAttempts, attempt)

	deliverErr := s.attempt(ctx, notif)
	return s.resolveAttempt(ctx, notif, attemptNumber, deliverErr)
}

func (s *service) GetByID(ctx context.Context, notificationID string) (models.Notification, error) {
	return s.repo.GetByID(ctx, notificationID)
}

func (s *service) ListRecent(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	return s.repo.ListRecent(ctx, recipientID, limit)
}

// attempt invokes the transport under the attempt timeout.
func (s *service) attempt(ctx context.Context, notif models.Notification) error {
	channel, ok := s.channels[notif.DeliveryChannel]
	if !ok {
		return fmt.Errorf("no transport configured for channel %s", notif.DeliveryChannel)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- channel.Deliver(attemptCtx, notif)
	}()

	select {
	case err := <-done:
		return err
	case <-attemptCtx.Done():
		return fmt.Errorf("delivery attempt timed out after %s", s.attemptTimeout)
	}
}

// resolveAttempt records the outcome of attempt attemptNumber and advances
// the notification to delivered or failed accordingly.
func (s *service) resolveAttempt(ctx context.Context, notif models.Notification, attemptNumber int, deliverErr error) (models.Notification, error) {
	if deliverErr == nil {
		if err := s.repo.ResolveAttempt(ctx, notif.ID, attemptNumber, models.OutcomeSuccess, nil); err != nil {
			return models.Notification{}, err
		}
		return s.transition(ctx, notif.ID, models.NotificationDelivered, func(n *models.Notification, now time.Time) {
			n.DeliveredAt = &now
			n.FailureReason = nil
		})
	}

	reason := deliverErr.Error()
	if err := s.repo.ResolveAttempt(ctx, notif.ID, attemptNumber, models.OutcomeFailure, &reason); err != nil {
		return models.Notification{}, err
	}
	failed, err := s.transition(ctx, notif.ID, models.NotificationFailed, func(n *models.Notification, _ time.Time) {
		n.FailureReason = &reason
		n.RetryCount++
	})
	if err != nil {
		return models.Notification{}, err
	}
	s.logger.Warn().
		Str("notification_id", notif.ID).
		Str("channel", string(notif.DeliveryChannel)).
		Int("retry_count", failed.RetryCount).
		Str("reason", reason).
		Msg("delivery attempt failed")
	return failed, nil
}

// transition guards the status change through the transition table and
// applies it under the repository's optimistic version check, retrying once
// when a concurrent writer wins the first round.
func (s *service) transition(ctx context.Context, notificationID string, to models.NotificationStatus, stamp func(*models.Notification, time.Time)) (models.Notification, error) {
	for tries := 0; ; tries++ {
		notif, err := s.repo.GetByID(ctx, notificationID)
		if err != nil {
			return models.Notification{}, err
		}
		if !models.CanTransition(notif.Status, to) {
			return models.Notification{}, &models.InvalidTransitionError{From: notif.Status, To: to}
		}

		notif.Status = to
		if stamp != nil {
			stamp(&notif, s.now())
		}

		updated, err := s.repo.Update(ctx, notif)
		if errors.Is(err, repository.ErrVersionConflict) && tries == 0 {
			continue
		}
		if err != nil {
			return models.Notification{}, err
		}
		return updated, nil
	}
}
