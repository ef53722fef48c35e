package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultRedisChannel is the pub/sub channel shared by every instance.
const DefaultRedisChannel = "supportdesk:realtime"

// RedisBridge mirrors hub events across instances through redis pub/sub.
// Local events are forwarded; remote events are replayed into the local hub
// with their original Origin, so they are never forwarded back.
type RedisBridge struct {
	client  redis.UniversalClient
	hub     *Hub
	channel string
	log     zerolog.Logger
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisBridge wires hub to client on channel (DefaultRedisChannel if empty).
func NewRedisBridge(client redis.UniversalClient, hub *Hub, channel string, log zerolog.Logger) *RedisBridge {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisBridge{
		client:  client,
		hub:     hub,
		channel: channel,
		log:     log.With().Str("component", "realtime-redis").Logger(),
	}
}

// Run forwards local events and replays remote ones until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	ps := b.client.Subscribe(ctx, b.channel)
	defer ps.Close()

	var stopped atomic.Bool
	defer stopped.Store(true)

	// Wait for the subscription confirmation before forwarding.
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	b.hub.Tap(func(ev Event) {
		if stopped.Load() || ev.Origin != b.hub.ID() {
			return
		}
		raw, err := json.Marshal(ev)
		if err != nil {
			return
		}
		pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := b.client.Publish(pubCtx, b.channel, raw).Err(); err != nil {
			b.log.Warn().Err(err).Str("table", ev.Table).Msg("forward event failed")
		}
	})

	b.log.Info().Str("channel", b.channel).Msg("redis bridge running")
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.replay(msg.Payload)
		}
	}
}

func (b *RedisBridge) replay(payload string) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		b.log.Warn().Err(err).Msg("discarding malformed bridge payload")
		return
	}
	if ev.Origin == "" || ev.Origin == b.hub.ID() {
		return
	}
	b.hub.Publish(ev)
}
