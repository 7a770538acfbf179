// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// envelope is the wire form of an update on the relay channel.
type envelope struct {
	Origin string `json:"origin"`
	Update Update `json:"update"`
}

// RedisRelay shares updates between server instances over Redis pub/sub.
// Each update is delivered to the local hub directly and published on
// <prefix><pollId>; Run feeds updates from other instances into the hub.
type RedisRelay struct {
	client   *redis.Client
	prefix   string
	hub      *Hub
	logger   *slog.Logger
	instance string
}

var _ Publisher = (*RedisRelay)(nil)

func NewRedisRelay(client *redis.Client, prefix string, hub *Hub, logger *slog.Logger) *RedisRelay {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRelay{
		client:   client,
		prefix:   prefix,
		hub:      hub,
		logger:   logger,
		instance: uuid.NewString(),
	}
}

// Publish delivers u locally, then to the other instances.
func (r *RedisRelay) Publish(ctx context.Context, u Update) error {
	if err := r.hub.Publish(ctx, u); err != nil {
		return err
	}

	payload, err := json.Marshal(envelope{Origin: r.instance, Update: u})
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	if err := r.client.Publish(ctx, r.prefix+u.PollID, payload).Err(); err != nil {
		return fmt.Errorf("relay update: %w", err)
	}
	return nil
}

// Run subscribes to every poll channel and forwards remote updates to the
// hub until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.PSubscribe(ctx, r.prefix+"*")
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before reading messages
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("relay subscribe: %w", err)
	}

	r.logger.Info("relay subscribed", "pattern", r.prefix+"*")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("relay subscription closed")
			}
			r.forward(ctx, msg)
		}
	}
}

func (r *RedisRelay) forward(ctx context.Context, msg *redis.Message) {
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		r.logger.Warn("dropping malformed relay message", "channel", msg.Channel, "error", err)
		return
	}
	if env.Origin == r.instance {
		return
	}
	if err := r.hub.Publish(ctx, env.Update); err != nil {
		r.logger.Debug("relay forward failed", "poll_id", env.Update.PollID, "error", err)
	}
}
