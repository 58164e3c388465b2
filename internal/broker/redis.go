package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis is a Broker backed by Redis Pub/Sub, for multi-node deployments.
// Each process holds one Redis subscription per active channel and fans
// received broadcasts out to its local subscribers.
type Redis struct {
	client *redis.Client
	log    *zerolog.Logger

	mu       sync.Mutex
	channels map[string]*redisChannel
}

type redisChannel struct {
	pubsub *redis.PubSub
	subs   map[Subscriber]struct{}
}

// NewRedis creates a broker on top of an existing Redis client.
func NewRedis(client *redis.Client, logger *zerolog.Logger) *Redis {
	return &Redis{
		client:   client,
		log:      logger,
		channels: make(map[string]*redisChannel),
	}
}

// Subscribe adds sub to the channel, opening the Redis subscription if this
// is the first local subscriber.
func (r *Redis) Subscribe(ctx context.Context, channel string, sub Subscriber) error {
	r.mu.Lock()
	ch, ok := r.channels[channel]
	if ok {
		ch.subs[sub] = struct{}{}
		r.mu.Unlock()
		return nil
	}

	pubsub := r.client.Subscribe(ctx, channel)
	ch = &redisChannel{
		pubsub: pubsub,
		subs:   map[Subscriber]struct{}{sub: {}},
	}
	r.channels[channel] = ch
	r.mu.Unlock()

	// Wait for the subscription confirmation before fanning out.
	if _, err := pubsub.Receive(ctx); err != nil {
		r.mu.Lock()
		delete(r.channels, channel)
		r.mu.Unlock()
		pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}

	go r.pump(channel, ch)
	return nil
}

// Unsubscribe removes sub from the channel, closing the Redis subscription
// once no local subscribers remain.
func (r *Redis) Unsubscribe(_ context.Context, channel string, sub Subscriber) error {
	r.mu.Lock()
	ch, ok := r.channels[channel]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	delete(ch.subs, sub)
	if len(ch.subs) > 0 {
		r.mu.Unlock()
		return nil
	}
	delete(r.channels, channel)
	r.mu.Unlock()

	return ch.pubsub.Close()
}

// Publish encodes b and publishes it on the channel.
func (r *Redis) Publish(ctx context.Context, channel string, b Broadcast) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal broadcast: %w", err)
	}
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// Close shuts down all Redis subscriptions. The Redis client itself is owned
// by the caller.
func (r *Redis) Close() error {
	r.mu.Lock()
	channels := r.channels
	r.channels = make(map[string]*redisChannel)
	r.mu.Unlock()

	var firstErr error
	for _, ch := range channels {
		if err := ch.pubsub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Redis) pump(channel string, ch *redisChannel) {
	for msg := range ch.pubsub.Channel() {
		var b Broadcast
		if err := json.Unmarshal([]byte(msg.Payload), &b); err != nil {
			r.log.Warn().Err(err).Str("channel", channel).Msg("drop malformed broadcast")
			continue
		}

		r.mu.Lock()
		targets := make([]Subscriber, 0, len(ch.subs))
		for sub := range ch.subs {
			targets = append(targets, sub)
		}
		r.mu.Unlock()

		for _, sub := range targets {
			sub.Deliver(b)
		}
	}
}
