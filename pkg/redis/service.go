package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyType namespaces the keys this service writes.
type KeyType string

const (
	// WEBHOOK_SEEN marks a provider message/callback id as already processed.
	WEBHOOK_SEEN KeyType = "csn_webhook_seen"
	// SETTINGS_CACHE holds the serialized global settings row.
	SETTINGS_CACHE KeyType = "csn_settings"
)

// EventsChannel is the pub/sub channel used to fan realtime events out
// across instances.
const EventsChannel = "csn:events"

// RedisConfig holds connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

var ErrKeyNotExist = redis.Nil

// Service wraps the redis client with the operations this application needs.
type Service struct {
	client *redis.Client
}

// NewService connects to redis and verifies the connection.
func NewService(config *RedisConfig) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Service{client: client}, nil
}

// GenerateKey builds a namespaced key.
func (s *Service) GenerateKey(keyType KeyType, identifier string) string {
	return fmt.Sprintf("%s:%s", string(keyType), identifier)
}

// GetValue gets a value by key. Returns ErrKeyNotExist when absent.
func (s *Service) GetValue(ctx context.Context, key string) (string, error) {
	return s.client.Get(ctx, key).Result()
}

// SetValue sets a value with a TTL.
func (s *Service) SetValue(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// DelValue deletes a key.
func (s *Service) DelValue(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Seen reports whether an idempotency key was already recorded.
func (s *Service) Seen(ctx context.Context, identifier string) (bool, error) {
	key := s.GenerateKey(WEBHOOK_SEEN, identifier)
	n, err := s.client.Exists(ctx, key).Result()
	return n > 0, err
}

// MarkSeen records an idempotency key. Returns true when the key was not
// seen before, false when a previous invocation already claimed it.
func (s *Service) MarkSeen(ctx context.Context, identifier string, ttl time.Duration) (bool, error) {
	key := s.GenerateKey(WEBHOOK_SEEN, identifier)
	return s.client.SetNX(ctx, key, "1", ttl).Result()
}

// Publish publishes a JSON-encoded message to a channel.
func (s *Service) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, channel, data).Err()
}

// Subscribe subscribes to a channel and invokes the handler for every payload.
// The subscription runs until the context is cancelled.
func (s *Service) Subscribe(ctx context.Context, channel string, handler func(string)) error {
	pubsub := s.client.Subscribe(ctx, channel)

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler(msg.Payload)
			}
		}
	}()

	return nil
}

// Close closes the underlying client.
func (s *Service) Close() error {
	return s.client.Close()
}
