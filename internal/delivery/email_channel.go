package delivery

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/evercare/carelink-api/internal/config"
	"github.com/evercare/carelink-api/internal/models"
	"github.com/evercare/carelink-api/internal/repository"
)

type EmailChannel struct {
	host     string
	port     int
	username string
	password string
	from     string
	users    repository.UserRepository
	logger   zerolog.Logger
}

func NewEmailChannel(cfg config.EmailConfig, users repository.UserRepository, logger zerolog.Logger) (*EmailChannel, error) {
	host := strings.TrimSpace(cfg.SMTPHost)
	from := strings.TrimSpace(cfg.From)
	if host == "" {
		return nil, fmt.Errorf("smtp_host is required for email channel")
	}
	if from == "" {
		return nil, fmt.Errorf("from is required for email channel")
	}
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}

	return &EmailChannel{
		host:     host,
		port:     port,
		username: strings.TrimSpace(cfg.Username),
		password: cfg.Password,
		from:     from,
		users:    users,
		logger:   logger.With().Str("channel", "email").Logger(),
	}, nil
}

func (c *EmailChannel) Name() models.DeliveryChannel {
	return models.ChannelEmail
}

func (c *EmailChannel) Deliver(_ context.Context, notif models.Notification) error {
	recipient, err := c.users.GetUserByID(notif.RecipientID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}

	subject := fmt.Sprintf("[CareLink] %s", strings.TrimSpace(notif.Title))
	if subject == "[CareLink] " {
		subject = "[CareLink] Reminder"
	}

	body := strings.Builder{}
	body.WriteString(strings.TrimSpace(notif.Message))
	body.WriteString("\n\n")
	body.WriteString(fmt.Sprintf("Sent: %s\n", notif.SentAt.Format("2006-01-02 15:04:05 MST")))

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n",
		c.from, recipient.Email, subject)

	message := []byte(headers + body.String())
	addr := fmt.Sprintf("%s:%d", c.host, c.port)

	var auth smtp.Auth
	if c.username != "" {
		auth = smtp.PlainAuth("", c.username, c.password, c.host)
	}

	if err := smtp.SendMail(addr, auth, c.from, []string{recipient.Email}, message); err != nil {
		return err
	}

	c.logger.Info().
		Str("notification_id", notif.ID).
		Str("recipient", recipient.Email).
		Msg("email notification sent")
	return nil
}

func (c *EmailChannel) String() string {
	return "EmailChannel"
}
