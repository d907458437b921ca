package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"partypics-app/internal/domain/notification"
	"partypics-app/internal/infra/metrics"
)

// envelope is the wire format shared by all instances on the redis topic.
type envelope struct {
	Channel      string                    `json:"channel"`
	Notification notification.Notification `json:"notification"`
}

func encodeEnvelope(channel string, n notification.Notification) ([]byte, error) {
	return json.Marshal(envelope{Channel: channel, Notification: n})
}

func decodeEnvelope(payload []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if strings.TrimSpace(env.Channel) == "" {
		return envelope{}, errors.New("decode envelope: channel missing")
	}
	return env, nil
}

// RedisBridge publishes notifications on a redis topic and feeds everything
// received on that topic into the local Hub, so clients connected to any
// instance see every notification.
type RedisBridge struct {
	client redis.UniversalClient
	topic  string
	hub    *Hub
	log    zerolog.Logger
}

// NewRedisClient builds a client from a redis:// or rediss:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func NewRedisBridge(client redis.UniversalClient, topic string, hub *Hub, log zerolog.Logger) *RedisBridge {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = "partypics"
	}
	return &RedisBridge{
		client: client,
		topic:  topic,
		hub:    hub,
		log:    log.With().Str("component", "redis-bridge").Str("topic", topic).Logger(),
	}
}

// Publish does not deliver locally; the subscriber loop does once redis echoes
// the message back.
func (b *RedisBridge) Publish(ctx context.Context, channel string, n notification.Notification) error {
	payload, err := encodeEnvelope(channel, n)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.topic, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run forwards topic messages into the hub until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.topic)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}
	b.log.Info().Msg("redis bridge subscribed")

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			env, err := decodeEnvelope([]byte(msg.Payload))
			if err != nil {
				metrics.RecordNotification("failed")
				b.log.Warn().Err(err).Msg("skip malformed redis message")
				continue
			}
			if err := b.hub.Publish(ctx, env.Channel, env.Notification); err != nil {
				return nil
			}
		}
	}
}

func (b *RedisBridge) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
