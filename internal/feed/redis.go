package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/logger"
	redisconn "github.com/MrSnakeDoc/gieok/internal/redis"
	redisstore "github.com/MrSnakeDoc/gieok/internal/store/redis"
)

const (
	reconnectDelay    = time.Second
	maxReconnectDelay = 30 * time.Second
)

// RedisBus carries events over a Redis pub/sub channel scoped by tenant.
type RedisBus struct {
	client  *redis.Client
	channel string
	log     logger.Logger
}

// ChannelFor is the pub/sub channel carrying tenant's events.
func ChannelFor(tenant string) string { return redisstore.ChangesChannel(tenant) }

// NewRedisBus returns nil when client is nil, so callers can pass the
// result straight to NewHub.
func NewRedisBus(client *redis.Client, tenant string, log logger.Logger) Bus {
	if client == nil {
		return nil
	}
	return &RedisBus{
		client:  client,
		channel: ChannelFor(tenant),
		log:     log,
	}
}

func (b *RedisBus) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

// Listen subscribes and delivers until ctx ends, resubscribing with
// backoff when the connection drops.
func (b *RedisBus) Listen(ctx context.Context, deliver func(domain.ChangeEvent)) error {
	bo := redisconn.Backoff{Initial: reconnectDelay, Max: maxReconnectDelay}
	for {
		err := b.listenOnce(ctx, deliver, bo.Reset)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := bo.Next()
		b.log.Warn("feed subscription lost, reconnecting",
			logger.String("channel", b.channel),
			logger.Duration("retry_in", delay),
			logger.Error(err),
		)
		if !redisconn.Sleep(ctx, delay) {
			return ctx.Err()
		}
	}
}

// listenOnce calls subscribed once the subscription is confirmed.
func (b *RedisBus) listenOnce(ctx context.Context, deliver func(domain.ChangeEvent), subscribed func()) error {
	ps := b.client.Subscribe(ctx, b.channel)
	defer ps.Close()

	// Wait for the subscription confirmation so publish-after-listen is safe.
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info("listening for change events", logger.String("channel", b.channel))
	subscribed()

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("subscription %s closed", b.channel)
			}
			var ev domain.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("dropping malformed change event", logger.Error(err))
				continue
			}
			deliver(ev)
		}
	}
}
