package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const relayReconnectDelay = time.Second

// RedisRelay shares events between server instances over a Redis pub/sub
// channel. Every instance publishes to the channel and delivers what it
// receives to its own connections.
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

// NewRedisRelay creates a relay on channel.
func NewRedisRelay(client redis.UniversalClient, channel string, logger *slog.Logger) (*RedisRelay, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if channel == "" {
		return nil, fmt.Errorf("relay channel cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRelay{
		client:  client,
		channel: channel,
		logger:  logger.With(slog.String("component", "redis_relay")),
	}, nil
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Publish implements Relay.
func (r *RedisRelay) Publish(ctx context.Context, payload []byte) error {
	return r.client.Publish(ctx, r.channel, payload).Err()
}

// Run subscribes to the channel and passes every message to deliver until
// ctx is cancelled. A dropped subscription is re-established after a short
// delay; messages published in between are lost.
func (r *RedisRelay) Run(ctx context.Context, deliver func(payload []byte) error) {
	for {
		r.consume(ctx, deliver)
		if ctx.Err() != nil {
			return
		}
		r.logger.Error("relay subscription closed, reconnecting",
			slog.Duration("delay", relayReconnectDelay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(relayReconnectDelay):
		}
	}
}

func (r *RedisRelay) consume(ctx context.Context, deliver func([]byte) error) {
	sub := r.client.Subscribe(ctx, r.channel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() == nil {
			r.logger.Error("relay subscribe failed", slog.String("error", err.Error()))
		}
		return
	}
	r.logger.Info("relay subscribed", slog.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := deliver([]byte(msg.Payload)); err != nil {
				r.logger.Error("failed to deliver relayed event", slog.String("error", err.Error()))
			}
		}
	}
}
