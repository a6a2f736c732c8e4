package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sharedcontext/server/internal/logger"
)

// invalidationChannel is the single Redis pub/sub channel every server
// instance publishes to and subscribes from. A single instance's in-process
// Hub only reaches subscribers connected to it; Redis closes the gap across
// instances sitting behind the same load balancer.
const invalidationChannel = "shared_context:session_events"

// RedisConfig configures the optional cross-process bridge. When Enabled is
// false, NewRedisBridge returns a disabled bridge whose methods are no-ops —
// the notification bus still works locally, it just doesn't fan out to
// siblings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// RedisBridge republishes local Hub events onto a Redis pub/sub channel and
// forwards events received from other instances back into the local Hub, so
// WebSocket subscribers connected to any instance see every session event
// regardless of which instance handled the write.
type RedisBridge struct {
	client *redis.Client
	hub    *Hub
}

// NewRedisBridge connects to Redis per cfg. A disabled config, or a dial
// failure, returns a bridge with a nil client — every method becomes a
// no-op so the rest of the server runs unaffected by Redis being down.
func NewRedisBridge(cfg RedisConfig, hub *Hub) *RedisBridge {
	if !cfg.Enabled {
		return &RedisBridge{hub: hub}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Live().Warn().Err(err).Msg("redis bridge disabled: ping failed")
		return &RedisBridge{hub: hub}
	}

	return &RedisBridge{client: client, hub: hub}
}

// Enabled reports whether this bridge holds a live Redis connection.
func (b *RedisBridge) Enabled() bool {
	return b.client != nil
}

// Publish republishes event onto the shared Redis channel for other
// instances to pick up. No-op when the bridge is disabled.
func (b *RedisBridge) Publish(ctx context.Context, event Event) error {
	if !b.Enabled() {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("live: marshal event for redis publish: %w", err)
	}
	return b.client.Publish(ctx, invalidationChannel, payload).Err()
}

// Run subscribes to the shared channel and feeds received events into the
// local Hub until ctx is cancelled. No-op when the bridge is disabled.
func (b *RedisBridge) Run(ctx context.Context) {
	if !b.Enabled() {
		return
	}

	sub := b.client.Subscribe(ctx, invalidationChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Live().Warn().Err(err).Msg("failed to unmarshal event from redis")
				continue
			}
			b.hub.broadcast <- event
		}
	}
}

// Close releases the underlying Redis client, if any.
func (b *RedisBridge) Close() error {
	if !b.Enabled() {
		return nil
	}
	return b.client.Close()
}

// Notifier returns a sessioncore.Notifier that publishes to the local Hub
// and, best-effort, mirrors the event to Redis for sibling instances. A
// Redis publish failure is logged and otherwise ignored — the notification
// bus is diagnostic infrastructure, not part of the write path's guarantees.
func (b *RedisBridge) Notifier() *BridgedNotifier {
	return &BridgedNotifier{hub: b.hub, bridge: b}
}

// BridgedNotifier fans a published event out to the local Hub and, when a
// live Redis connection is present, to every sibling server instance.
type BridgedNotifier struct {
	hub    *Hub
	bridge *RedisBridge
}

func (n *BridgedNotifier) Publish(sessionID, eventType string, data map[string]interface{}) {
	event := Event{SessionID: sessionID, Type: eventType, Data: data, Timestamp: time.Now().UTC()}
	n.hub.broadcast <- event

	if n.bridge.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := n.bridge.Publish(ctx, event); err != nil {
			logger.Live().Warn().Err(err).Str("session_id", sessionID).Msg("failed to mirror event to redis")
		}
	}
}
