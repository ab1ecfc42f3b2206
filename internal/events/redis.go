package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"threewloc-backend/internal/domain"
	"threewloc-backend/internal/logger"
)

type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	EnableTLS bool
	// Prefix is prepended to every channel name.
	Prefix string
}

// RedisFeed publishes BookingChanged hints on a per-equipment channel and
// lets availability views subscribe to them.
type RedisFeed struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisClient(ctx context.Context, opts RedisOptions) (redis.UniversalClient, error) {
	var tlsConf *tls.Config
	if opts.EnableTLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		TLSConfig:    tlsConf,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MaxRetries:   2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func NewRedisFeed(client redis.UniversalClient, prefix string) *RedisFeed {
	return &RedisFeed{client: client, prefix: prefix}
}

// Channel is the pub/sub channel for one equipment item.
func (f *RedisFeed) Channel(equipmentID uuid.UUID) string {
	return f.prefix + "availability:" + equipmentID.String()
}

func (f *RedisFeed) PublishBookingChanged(ctx context.Context, event domain.BookingChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	channel := f.Channel(event.EquipmentID)
	logger.ExternalServiceCall("redis", "PUBLISH", "channel", channel)
	err = f.client.Publish(ctx, channel, payload).Err()
	logger.ExternalServiceResult("redis", "PUBLISH", err, "channel", channel)
	return err
}

// Subscribe calls onChange from a background goroutine until unsubscribe is
// called or ctx ends. Malformed payloads are dropped.
func (f *RedisFeed) Subscribe(ctx context.Context, equipmentID uuid.UUID, onChange func(domain.BookingChanged)) (func(), error) {
	channel := f.Channel(equipmentID)
	pubsub := f.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return func() {}, err
	}

	var once sync.Once
	done := make(chan struct{})
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}

	go func() {
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				unsubscribe()
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				event, err := decodeChange(msg.Payload)
				if err != nil {
					logger.Warn("Dropping malformed availability event", "channel", channel, "error", err)
					continue
				}
				onChange(event)
			}
		}
	}()
	return unsubscribe, nil
}

func decodeChange(payload string) (domain.BookingChanged, error) {
	var event domain.BookingChanged
	err := json.Unmarshal([]byte(payload), &event)
	return event, err
}
