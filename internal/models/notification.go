package models

import "time"

type NotificationStatus string

const (
	NotificationSent         NotificationStatus = "sent"
	NotificationDelivered    NotificationStatus = "delivered"
	NotificationRead         NotificationStatus = "read"
	NotificationAcknowledged NotificationStatus = "acknowledged"
	NotificationFailed       NotificationStatus = "failed"
	NotificationRetrying     NotificationStatus = "retrying"
)

type DeliveryChannel string

const (
	ChannelMobilePush DeliveryChannel = "mobile_push"
	ChannelEmail      DeliveryChannel = "email"
	ChannelInApp      DeliveryChannel = "in_app"
	ChannelSMS        DeliveryChannel = "sms"
)

type RecipientType string

const (
	RecipientElderlyUser RecipientType = "elderly_user"
	RecipientCaregiver   RecipientType = "caregiver"
)

type AttemptOutcome string

const (
	OutcomePending AttemptOutcome = "pending"
	OutcomeSuccess AttemptOutcome = "success"
	OutcomeFailure AttemptOutcome = "failure"
)

// DeliveryAttempt is one row of a notification's append-only attempt history.
type DeliveryAttempt struct {
	ID             string          `json:"id" db:"id"`
	NotificationID string          `json:"notification_id" db:"notification_id"`
	AttemptNumber  int             `json:"attempt_number" db:"attempt_number"`
	AttemptedAt    time.Time       `json:"attempted_at" db:"attempted_at"`
	Outcome        AttemptOutcome  `json:"outcome" db:"outcome"`
	Channel        DeliveryChannel `json:"channel" db:"channel"`
	ErrorReason    *string         `json:"error_reason,omitempty" db:"error_reason"`
}

// Notification tracks one fired reminder through its delivery lifecycle. It
// holds a weak reference to its reminder and is never deleted.
type Notification struct {
	ID               string             `json:"id" db:"id"`
	SourceReminderID string             `json:"source_reminder_id" db:"source_reminder_id"`
	Title            string             `json:"title" db:"title"`
	Message          string             `json:"message" db:"message"`
	DeliveryChannel  DeliveryChannel    `json:"delivery_channel" db:"delivery_channel"`
	RecipientType    RecipientType      `json:"recipient_type" db:"recipient_type"`
	RecipientID      string             `json:"recipient_id" db:"recipient_id"`
	Status           NotificationStatus `json:"status" db:"status"`
	SentAt           time.Time          `json:"sent_at" db:"sent_at"`
	DeliveredAt      *time.Time         `json:"delivered_at,omitempty" db:"delivered_at"`
	ReadAt           *time.Time         `json:"read_at,omitempty" db:"read_at"`
	AcknowledgedAt   *time.Time         `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	FailureReason    *string            `json:"failure_reason,omitempty" db:"failure_reason"`
	RetryCount       int                `json:"retry_count" db:"retry_count"`
	Version          int                `json:"-" db:"version"`
	DeliveryAttempts []DeliveryAttempt  `json:"delivery_attempts,omitempty"`
}

var notificationTransitions = map[NotificationStatus][]NotificationStatus{
	NotificationSent:      {NotificationDelivered, NotificationFailed},
	NotificationDelivered: {NotificationRead},
	NotificationRead:      {NotificationAcknowledged},
	NotificationFailed:    {NotificationRetrying},
	NotificationRetrying:  {NotificationDelivered, NotificationFailed},
}

// CanTransition reports whether to is a legal next status after from. The
// happy path is strictly forward; acknowledged is terminal.
func CanTransition(from, to NotificationStatus) bool {
	for _, allowed := range notificationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
