// Package notify delivers alert notifications over outbound channels.
package notify

import (
	"context"

	"weathermap/internal/model"
)

// Provider sends notifications through a specific channel.
type Provider interface {
	Name() string
	Send(ctx context.Context, n model.Notification) error
}
