package delivery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evercare/carelink-api/internal/models"
	"github.com/evercare/carelink-api/internal/repository"
)

// fakeNotificationRepo is an in-memory notification store. It enforces the
// same optimistic version check as the SQL implementation, and can be
// scripted to lose a round via conflictsLeft.
type fakeNotificationRepo struct {
	notifications map[string]models.Notification
	attempts      map[string][]models.DeliveryAttempt
	nextID        int
	conflictsLeft int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{
		notifications: make(map[string]models.Notification),
		attempts:      make(map[string][]models.DeliveryAttempt),
	}
}

func (f *fakeNotificationRepo) Create(_ context.Context, params repository.CreateNotificationParams) (models.Notification, error) {
	f.nextID++
	id := fmt.Sprintf("notif-%d", f.nextID)
	notif := models.Notification{
		ID:               id,
		SourceReminderID: params.SourceReminderID,
		Title:            params.Title,
		Message:          params.Message,
		DeliveryChannel:  params.Channel,
		RecipientType:    params.RecipientType,
		RecipientID:      params.RecipientID,
		Status:           models.NotificationSent,
		SentAt:           time.Now(),
	}
	f.notifications[id] = notif
	f.attempts[id] = []models.DeliveryAttempt{{
		ID:             id + "-a1",
		NotificationID: id,
		AttemptNumber:  1,
		AttemptedAt:    time.Now(),
		Outcome:        models.OutcomePending,
		Channel:        params.Channel,
	}}
	return f.withAttempts(notif), nil
}

func (f *fakeNotificationRepo) GetByID(_ context.Context, notificationID string) (models.Notification, error) {
	notif, ok := f.notifications[notificationID]
	if !ok {
		return models.Notification{}, &models.NotFoundError{Resource: "notification", ID: notificationID}
	}
	return f.withAttempts(notif), nil
}

func (f *fakeNotificationRepo) ListRecent(_ context.Context, recipientID string, _ int) ([]models.Notification, error) {
	var result []models.Notification
	for _, notif := range f.notifications {
		if notif.RecipientID == recipientID {
			result = append(result, f.withAttempts(notif))
		}
	}
	return result, nil
}

func (f *fakeNotificationRepo) ListByReminder(_ context.Context, reminderID string) ([]models.Notification, error) {
	var result []models.Notification
	for _, notif := range f.notifications {
		if notif.SourceReminderID == reminderID {
			result = append(result, f.withAttempts(notif))
		}
	}
	return result, nil
}

func (f *fakeNotificationRepo) Update(_ context.Context, notification models.Notification) (models.Notification, error) {
	stored, ok := f.notifications[notification.ID]
	if !ok {
		return models.Notification{}, &models.NotFoundError{Resource: "notification", ID: notification.ID}
	}
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return models.Notification{}, repository.ErrVersionConflict
	}
	if stored.Version != notification.Version {
		return models.Notification{}, repository.ErrVersionConflict
	}
	notification.Version++
	notification.DeliveryAttempts = nil
	f.notifications[notification.ID] = notification
	return f.withAttempts(notification), nil
}

func (f *fakeNotificationRepo) AppendAttempt(_ context.Context, attempt models.DeliveryAttempt) (models.DeliveryAttempt, error) {
	attempt.ID = fmt.Sprintf("%s-a%d", attempt.NotificationID, attempt.AttemptNumber)
	attempt.AttemptedAt = time.Now()
	f.attempts[attempt.NotificationID] = append(f.attempts[attempt.NotificationID], attempt)
	return attempt, nil
}

func (f *fakeNotificationRepo) ResolveAttempt(_ context.Context, notificationID string, attemptNumber int, outcome models.AttemptOutcome, errorReason *string) error {
	attempts := f.attempts[notificationID]
	for i := range attempts {
		if attempts[i].AttemptNumber == attemptNumber {
			attempts[i].Outcome = outcome
			attempts[i].ErrorReason = errorReason
			return nil
		}
	}
	return errors.Errorf("attempt %d not found for notification %s", attemptNumber, notificationID)
}

func (f *fakeNotificationRepo) withAttempts(notif models.Notification) models.Notification {
	notif.DeliveryAttempts = append([]models.DeliveryAttempt(nil), f.attempts[notif.ID]...)
	return notif
}

// scriptedChannel replays a queue of outcomes, one per Deliver call.
type scriptedChannel struct {
	name    models.DeliveryChannel
	results []error
	delay   time.Duration
	calls   int
}

func (c *scriptedChannel) Name() models.DeliveryChannel { return c.name }

func (c *scriptedChannel) Deliver(ctx context.Context, _ models.Notification) error {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if c.calls >= len(c.results) {
		return nil
	}
	err := c.results[c.calls]
	c.calls++
	return err
}

func newTestService(repo *fakeNotificationRepo, channel Channel) *service {
	return NewService(repo, NewRegistry(channel), time.Second, zerolog.Nop()).(*service)
}

func testReminder() models.Reminder {
	return models.Reminder{
		ID:            "rem-1",
		UserID:        "user-1",
		SourceType:    models.SourceMedication,
		ReferenceID:   "med-1",
		Title:         "Aspirin",
		ScheduledTime: time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC),
	}
}

func testRecipient() models.User {
	return models.User{ID: "user-1", Roles: []models.UserRole{models.RoleElderly}}
}

func TestDispatch_Success(t *testing.T) {
	repo := newFakeNotificationRepo()
	channel := &scriptedChannel{name: models.ChannelInApp, results: []error{nil}}
	svc := newTestService(repo, channel)

	notif, err := svc.Dispatch(context.Background(), testReminder(), testRecipient(), models.ChannelInApp)
	require.NoError(t, err)

	assert.Equal(t, models.NotificationDelivered, notif.Status)
	assert.Equal(t, "rem-1", notif.SourceReminderID)
	assert.Equal(t, models.RecipientElderlyUser, notif.RecipientType)
	assert.Equal(t, 0, notif.RetryCount)
	require.NotNil(t, notif.DeliveredAt)
	assert.False(t, notif.DeliveredAt.Before(notif.SentAt))

	require.Len(t, notif.DeliveryAttempts, 1)
	assert.Equal(t, 1, notif.DeliveryAttempts[0].AttemptNumber)
	assert.Equal(t, models.OutcomeSuccess, notif.DeliveryAttempts[0].Outcome)
}

func TestDispatch_ChannelFailure(t *testing.T) {
	repo := newFakeNotificationRepo()
	channel := &scriptedChannel{name: models.ChannelSMS, results: []error{errors.New("gateway unreachable")}}
	svc := newTestService(repo, channel)

	notif, err := svc.Dispatch(context.Background(), testReminder(), testRecipient(), models.ChannelSMS)
	require.NoError(t, err)

	assert.Equal(t, models.NotificationFailed, notif.Status)
	assert.Equal(t, 1, notif.RetryCount)
	require.NotNil(t, notif.FailureReason)
	assert.Equal(t, "gateway unreachable", *notif.FailureReason)
	assert.Nil(t, notif.DeliveredAt)

	require.Len(t, notif.DeliveryAttempts, 1)
	assert.Equal(t, models.OutcomeFailure, notif.DeliveryAttempts[0].Outcome)
}

func TestDispatch_UnconfiguredChannelIsFailure(t *testing.T) {
	repo := newFakeNotificationRepo()
	channel := &scriptedChannel{name: models.ChannelInApp}
	svc := newTestService(repo, channel)

	notif, err := svc.Dispatch(context.Background(), testReminder(), testRecipient(), models.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationFailed, notif.Status)
}

func TestDispatch_TimeoutIsFailure(t *testing.T) {
	repo := newFakeNotificationRepo()
	channel := &scriptedChannel{name: models.ChannelInApp, delay: time.Second}
	svc := NewService(repo, NewRegistry(channel), 20*time.Millisecond, zerolog.Nop())

	notif, err := svc.Dispatch(context.Background(), testReminder(), testRecipient(), models.ChannelInApp)
	require.NoError(t, err)

	assert.Equal(t, models.NotificationFailed, notif.Status)
	require.NotNil(t, notif.FailureReason)
	assert.Contains(t, *notif.FailureReason, "timed out")
}

func TestHappyPath_MonotonicTimestamps(t *testing.T) {
	repo := newFakeNotificationRepo()
	channel := &scriptedChannel{name: models.ChannelInApp, results: []error{nil}}
	svc := newTestService(repo, channel)

	clock := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	notif, err := svc.Dispatch(context.Background(), testReminder(), testRecipient(), models.ChannelInApp)
	require.NoError(t, err)
	require.Equal(t, models.NotificationDelivered, notif.Status)

	notif, err = svc.MarkRead(context.Background(), notif.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationRead, notif.Status)

	notif, err = svc.Acknowledge(context.Background(), notif.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationAcknowledged, notif.Status)

	require.NotNil(t, notif.DeliveredAt)
	require.NotNil(t, notif.ReadAt)
	require.NotNil(t, notif.AcknowledgedAt)
	assert.True(t, notif.ReadAt.After(*notif.DeliveredAt))
	assert.True(t, notif.AcknowledgedAt.After(*notif.ReadAt))
}

func TestTransition_Invalid(t *testing.T) {
	repo := newFakeNotificationRepo()
	channel := &scriptedChannel{name: models.ChannelInApp, results: []error{nil}}
	svc := newTestService(repo, channel)

	notif, err := svc.Dispatch(context.Background(), testReminder(), testRecipient(), models.ChannelInApp)
	require.NoError(t, err)
	require.Equal(t, models.NotificationDelivered, notif.Status)

	// Delivered cannot jump straight to acknowledged.
	_, err = svc.Acknowledge(context.Background(), notif.ID)
	var invalid *models.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.NotificationDelivered, invalid.From)
	assert.Equal(t, models.NotificationAcknowledged, invalid.To)

	// A delivered notification cannot be retried.
	_, err = svc.Retry(context.Background(), notif.ID)
	assert.ErrorAs(t, err, &invalid)
}

func TestAcknowledged_IsTerminal(t *testing.T) {
	repo := newFakeNotificationRepo()
	channel := &scriptedChannel{name: models.ChannelInApp, results: []error{nil}}
	svc := newTestService(repo, channel)

	notif, err := svc.Dispatch(context.Background(), testReminder(), testRecipient(), models.ChannelInApp)
	require.NoError(t, err)
	notif, err = svc.MarkRead(context.Background(), notif.ID)
	require.NoError(t, err)
	notif, err = svc.Acknowledge(context.Background(), notif.ID)
	require.NoError(t, err)

	var invalid *models.InvalidTransitionError
	_, err = svc.MarkDelivered(context.Background(), notif.ID)
	assert.ErrorAs(t, err, &invalid)
	_, err = svc.MarkRead(context.Background(), notif.ID)
	assert.ErrorAs(t, err, &invalid)
	_, err = svc.Retry(context.Background(), notif.ID)
	assert.ErrorAs(t, err, &invalid)
}

func TestRetry_EventualSuccess(t *testing.T) {
	repo := newFakeNotificationRepo()
	channel := &scriptedChannel{
		name:    models.ChannelMobilePush,
		results: []error{errors.New("device offline"), errors.New("device offline"), nil},
	}
	svc := newTestService(repo, channel)

	notif, err := svc.Dispatch(context.Background(), testReminder(), testRecipient(), models.ChannelMobilePush)
	require.NoError(t, err)
	require.Equal(t, models.NotificationFailed, notif.Status)
	assert.Equal(t, 1, notif.RetryCount)

	notif, err = svc.Retry(context.Background(), notif.ID)
	require.NoError(t, err)
	require.Equal(t, models.NotificationFailed, notif.Status)
	assert.Equal(t, 2, notif.RetryCount)

	notif, err = svc.Retry(context.Background(), notif.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationDelivered, notif.Status)
	// The count of failed attempts is preserved through the recovery.
	assert.Equal(t, 2, notif.RetryCount)
	assert.Nil(t, notif.FailureReason)
	require.NotNil(t, notif.DeliveredAt)

	require.Len(t, notif.DeliveryAttempts, 3)
	assert.Equal(t, models.OutcomeFailure, notif.DeliveryAttempts[0].Outcome)
	assert.Equal(t, models.OutcomeFailure, notif.DeliveryAttempts[1].Outcome)
	assert.Equal(t, models.OutcomeSuccess, notif.DeliveryAttempts[2].Outcome)
	assert.Equal(t, 3, notif.DeliveryAttempts[2].AttemptNumber)

	// A recovered notification continues on the normal happy path.
	notif, err = svc.MarkRead(context.Background(), notif.ID)
	require.NoError(t, err)
	_, err = svc.Acknowledge(context.Background(), notif.ID)
	require.NoError(t, err)
}

func TestTransition_RetriesOnceOnVersionConflict(t *testing.T) {
	repo := newFakeNotificationRepo()
	channel := &scriptedChannel{name: models.ChannelInApp, results: []error{nil}}
	svc := newTestService(repo, channel)

	notif, err := svc.Dispatch(context.Background(), testReminder(), testRecipient(), models.ChannelInApp)
	require.NoError(t, err)

	repo.conflictsLeft = 1
	notif, err = svc.MarkRead(context.Background(), notif.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationRead, notif.Status)

	// Two conflicts in a row exhaust the single retry.
	repo.conflictsLeft = 2
	_, err = svc.Acknowledge(context.Background(), notif.ID)
	assert.ErrorIs(t, err, repository.ErrVersionConflict)
}
