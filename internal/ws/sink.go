package ws

import (
	"context"

	"github.com/ignatzorin/proposal-engine/internal/usecase/notify"
)

// HubSink доставляет уведомления в живую ленту владельца предложения.
type HubSink struct {
	hub *Hub
}

func NewHubSink(hub *Hub) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Name() string { return "websocket" }

func (s *HubSink) Deliver(ctx context.Context, n notify.Notification) error {
	return s.hub.BroadcastToUser(ctx, n.OwnerID, n.Type, n)
}
