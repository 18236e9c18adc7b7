// Package pubsub carries bus channels over Redis pub/sub. Every subscriber
// sees every message; the intended recipient travels in a leading
// ServerTarget field and is not checked here.
//
// Player sessions and the set of known backend servers still come from the
// proxy link. A backend that talks over Redis without holding a link is not a
// known server: requests naming it as ServerSource fall back to the player's
// current server, or are dropped when the player is offline.
package pubsub

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"network-leveling/internal/adapters/metrics"
	"network-leveling/internal/adapters/transport"
	"network-leveling/internal/core/ports"
	"network-leveling/internal/wire"

	"github.com/redis/go-redis/v9"
)

const backendName = "redis"

// TargetField names the field prepended to every published payload.
const TargetField = "ServerTarget"

type Options struct {
	Addr        string
	Password    string
	PoolSize    int
	PoolTimeout time.Duration
}

type RedisTransport struct {
	client    *redis.Client
	listeners *transport.Registry

	mu     sync.Mutex
	subs   map[string]*redis.PubSub
	closed bool
	wg     sync.WaitGroup
}

func NewRedisTransport(ctx context.Context, opts Options) (*RedisTransport, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		PoolSize:    opts.PoolSize,
		PoolTimeout: opts.PoolTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return newRedisTransport(client), nil
}

func newRedisTransport(client *redis.Client) *RedisTransport {
	return &RedisTransport{
		client:    client,
		listeners: transport.NewRegistry(),
		subs:      make(map[string]*redis.PubSub),
	}
}

// RegisterChannel subscribes to name and returns once the subscription is
// confirmed by the server.
func (t *RedisTransport) RegisterChannel(ctx context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("register %s: transport closed", name)
	}
	if _, ok := t.subs[name]; ok {
		return nil
	}

	sub := t.client.Subscribe(ctx, name)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe %s: %w", name, err)
	}

	t.listeners.Register(name)
	t.subs[name] = sub
	t.wg.Add(1)
	go t.receive(name, sub)
	return nil
}

func (t *RedisTransport) AddListener(channel string, h ports.Handler) error {
	return t.listeners.AddListener(channel, h)
}

func (t *RedisTransport) receive(channel string, sub *redis.PubSub) {
	defer t.wg.Done()
	for msg := range sub.Channel() {
		data, err := base64.StdEncoding.DecodeString(msg.Payload)
		if err != nil {
			metrics.TransportMessages.WithLabelValues(backendName, "in", "malformed").Inc()
			slog.Warn("Dropping undecodable pub/sub payload", "channel", channel, "error", err)
			continue
		}
		metrics.TransportMessages.WithLabelValues(backendName, "in", "ok").Inc()
		t.listeners.Dispatch(channel, data)
	}
}

// SendData publishes data on channel with target prepended. It reports
// whether Redis accepted the message, not whether target received it.
func (t *RedisTransport) SendData(ctx context.Context, target, channel string, data []byte) bool {
	framed, err := wire.Prepend(TargetField, target, data)
	if err != nil {
		metrics.TransportMessages.WithLabelValues(backendName, "out", "error").Inc()
		slog.Error("Failed to frame outbound message", "channel", channel, "target", target, "error", err)
		return false
	}

	payload := base64.StdEncoding.EncodeToString(framed)
	if err := t.client.Publish(ctx, channel, payload).Err(); err != nil {
		metrics.TransportMessages.WithLabelValues(backendName, "out", "error").Inc()
		slog.Warn("Failed to publish message", "channel", channel, "target", target, "error", err)
		return false
	}
	metrics.TransportMessages.WithLabelValues(backendName, "out", "ok").Inc()
	return true
}

func (t *RedisTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	for name, sub := range t.subs {
		if err := sub.Close(); err != nil {
			slog.Warn("Failed to close subscription", "channel", name, "error", err)
		}
	}
	t.mu.Unlock()

	t.wg.Wait()
	return t.client.Close()
}
