package redisstore

import (
	"context"
	"dispatcher/internal/config"
	"dispatcher/pkg/backoff"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Client struct {
	Cfg config.Redis
	Rdb *redis.Client
}

func New(cfg config.Redis) *Client {
	log.Info().Msgf("connecting to redis at %s", cfg.Addr)
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Client{Cfg: cfg, Rdb: c}
}

// Connect → single ping
func (c *Client) Connect(ctx context.Context) error {
	if err := c.Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Ctx(ctx).Info().Msg("connected to redis")
	return nil
}

// Init → used at startup, retries Connect with jittered backoff
func (c *Client) Init(ctx context.Context, attempts int, base, max time.Duration) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = c.Connect(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		delay := backoff.ExponentialJitter(base, max, attempt)
		log.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("redis not ready")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

func (c *Client) Close() error {
	return c.Rdb.Close()
}
