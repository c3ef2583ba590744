package redis_client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/nextbus/pkg/config"
)

var Client *redis.Client

const connectTimeout = 30 * time.Second

// Connect sets Client and pings it, retrying with backoff until connectTimeout
func Connect(ctx context.Context, cfg *config.Config) error {
	options := &redis.Options{
		Addr: cfg.RedisAddress,
		DB:   cfg.RedisDatabase,
	}
	if cfg.RedisPassword != "" {
		options.Password = cfg.RedisPassword
	}

	client := redis.NewClient(options)

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = connectTimeout

	err := backoff.RetryNotify(
		func() error {
			return client.Ping(ctx).Err()
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, wait time.Duration) {
			log.Warn().Err(err).Str("address", cfg.RedisAddress).Dur("wait", wait).Msg("Redis not reachable yet")
		},
	)
	if err != nil {
		client.Close()
		return err
	}

	Client = client
	log.Info().Str("address", cfg.RedisAddress).Int("database", cfg.RedisDatabase).Msg("Connected to Redis")

	return nil
}
