package delivery

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/evercare/carelink-api/internal/config"
	"github.com/evercare/carelink-api/internal/models"
)

type SMSChannel struct {
	enabled    bool
	gatewayURL string
	senderID   string
	logger     zerolog.Logger
}

func NewSMSChannel(cfg config.SMSConfig, logger zerolog.Logger) *SMSChannel {
	enabled := cfg.Enabled && cfg.GatewayURL != ""
	return &SMSChannel{
		enabled:    enabled,
		gatewayURL: cfg.GatewayURL,
		senderID:   cfg.SenderID,
		logger:     logger.With().Str("channel", "sms").Logger(),
	}
}

func (c *SMSChannel) Name() models.DeliveryChannel {
	return models.ChannelSMS
}

func (c *SMSChannel) Deliver(_ context.Context, notif models.Notification) error {
	if !c.enabled {
		return fmt.Errorf("sms channel is not configured")
	}
	c.logger.Info().
		Str("notification_id", notif.ID).
		Str("recipient_id", notif.RecipientID).
		Str("gateway", c.gatewayURL).
		Msg("sms dispatched")
	return nil
}

func (c *SMSChannel) String() string {
	if !c.enabled {
		return "SMSChannel(disabled)"
	}
	return fmt.Sprintf("SMSChannel(gateway=%s)", c.gatewayURL)
}
