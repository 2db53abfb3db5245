package delivery

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/evercare/carelink-api/internal/config"
	"github.com/evercare/carelink-api/internal/models"
)

type PushChannel struct {
	enabled   bool
	projectID string
	topic     string
	logger    zerolog.Logger
}

func NewPushChannel(cfg config.PushConfig, logger zerolog.Logger) *PushChannel {
	enabled := cfg.Enabled && cfg.ProjectID != "" && cfg.Topic != ""
	return &PushChannel{
		enabled:   enabled,
		projectID: cfg.ProjectID,
		topic:     cfg.Topic,
		logger:    logger.With().Str("channel", "mobile_push").Logger(),
	}
}

func (c *PushChannel) Name() models.DeliveryChannel {
	return models.ChannelMobilePush
}

func (c *PushChannel) Deliver(_ context.Context, notif models.Notification) error {
	if !c.enabled {
		return fmt.Errorf("mobile push channel is not configured")
	}
	c.logger.Info().
		Str("notification_id", notif.ID).
		Str("recipient_id", notif.RecipientID).
		Str("topic", c.topic).
		Msg("push notification dispatched")
	return nil
}

func (c *PushChannel) String() string {
	if !c.enabled {
		return "PushChannel(disabled)"
	}
	return fmt.Sprintf("PushChannel(project=%s, topic=%s)", c.projectID, c.topic)
}
