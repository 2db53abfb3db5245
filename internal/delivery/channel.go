// Package delivery tracks notifications through their delivery lifecycle:
// sent, delivered, read, acknowledged on the happy path, with a failed and
// retrying branch for channel errors.
package delivery

import (
	"context"

	"github.com/evercare/carelink-api/internal/models"
)

// Channel is the outbound transport for one delivery mechanism. A returned
// error is an expected, modeled outcome: the state machine records it as a
// failed attempt rather than propagating it.
type Channel interface {
	Name() models.DeliveryChannel
	Deliver(ctx context.Context, notification models.Notification) error
}

// Registry maps channel identifiers to configured transports.
type Registry map[models.DeliveryChannel]Channel

func NewRegistry(channels ...Channel) Registry {
	registry := make(Registry, len(channels))
	for _, ch := range channels {
		if ch != nil {
			registry[ch.Name()] = ch
		}
	}
	return registry
}
