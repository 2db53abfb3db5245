package delivery

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/evercare/carelink-api/internal/models"
)

// InAppChannel delivers through the notification record itself: the stored
// row is what the client polls, so acceptance is immediate.
type InAppChannel struct {
	logger zerolog.Logger
}

func NewInAppChannel(logger zerolog.Logger) *InAppChannel {
	return &InAppChannel{logger: logger.With().Str("channel", "in_app").Logger()}
}

func (c *InAppChannel) Name() models.DeliveryChannel {
	return models.ChannelInApp
}

func (c *InAppChannel) Deliver(_ context.Context, notif models.Notification) error {
	c.logger.Debug().
		Str("notification_id", notif.ID).
		Str("recipient_id", notif.RecipientID).
		Msg("in-app notification available")
	return nil
}

func (c *InAppChannel) String() string {
	return "InAppChannel"
}
