package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Sternrassler/beauty-storefront/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultChannel is the Redis Pub/Sub channel used for cart notifications.
const DefaultChannel = "storefront:cart"

// RedisTransport publishes events on a Redis Pub/Sub channel so that every
// storefront process sharing the keyspace observes changes.
type RedisTransport struct {
	redis   *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisTransport creates a transport on channel (DefaultChannel if empty).
func NewRedisTransport(redisClient *redis.Client, channel string, logger zerolog.Logger) *RedisTransport {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisTransport{
		redis:   redisClient,
		channel: channel,
		logger:  logger.With().Str("component", logging.ComponentPubSub).Str("channel", channel).Logger(),
	}
}

// Publish sends evt to the channel.
func (t *RedisTransport) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := t.redis.Publish(ctx, t.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe starts a receive loop that calls handler for every decodable
// message until the subscription is cancelled. The subscription is active
// when Subscribe returns.
func (t *RedisTransport) Subscribe(handler Handler) (Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())

	pubsub := t.redis.Subscribe(ctx, t.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %q: %w", t.channel, err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		for msg := range pubsub.Channel() {
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				t.logger.Warn().Err(err).Msg("Dropping undecodable event")
				continue
			}
			handler(evt)
			eventsDeliveredTotal.WithLabelValues("redis").Inc()
		}
	}()

	t.logger.Debug().Msg("Subscribed to channel")
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

// Unsubscribe closes the Pub/Sub connection and waits for the receive loop.
func (s *redisSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		s.pubsub.Close()
		<-s.done
	})
}

var _ Transport = (*RedisTransport)(nil)
