package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/festapp/identity/internal/core/ports"
)

var _ ports.RoleChangeNotifier = (*RoleChangePublisher)(nil)

// DefaultRoleChannel is the pub/sub channel the realtime gateway listens on.
const DefaultRoleChannel = "identity:role-changed"

// RoleChangePublisher implements ports.RoleChangeNotifier with Redis pub/sub.
// The WebSocket fan-out subscribed to the channel lives outside this service.
type RoleChangePublisher struct {
	client  *redis.Client
	channel string
}

// NewRoleChangePublisher creates a publisher on channel, or
// DefaultRoleChannel when channel is empty.
func NewRoleChangePublisher(client *redis.Client, channel string) *RoleChangePublisher {
	if channel == "" {
		channel = DefaultRoleChannel
	}
	return &RoleChangePublisher{client: client, channel: channel}
}

func (p *RoleChangePublisher) PublishRoleChanged(ctx context.Context, event ports.RoleChangedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode role change: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish role change: %w", err)
	}
	return nil
}
