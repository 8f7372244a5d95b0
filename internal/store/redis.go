package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"janshi/internal/config"
)

const (
	keyPrefix = "janshi:priors:"
	priorsTTL = 30 * 24 * time.Hour
)

// Redis keeps priors in redis so the reads survive the process.
type Redis struct {
	cli *redis.Client
}

var _ PriorsStore = (*Redis)(nil)

// NewRedis connects and pings up front; a dead server fails construction
// rather than every later call.
func NewRedis(cfg config.Redis) (*Redis, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Redis{cli: cli}, nil
}

func (s *Redis) Get(ctx context.Context, key string) (Priors, bool, error) {
	raw, err := s.cli.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return Priors{}, false, nil
	}
	if err != nil {
		return Priors{}, false, fmt.Errorf("priors get %s: %w", key, err)
	}
	var p Priors
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Priors{}, false, fmt.Errorf("priors decode %s: %w", key, err)
	}
	return p, true, nil
}

func (s *Redis) Put(ctx context.Context, key string, p Priors) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("priors encode %s: %w", key, err)
	}
	if err := s.cli.Set(ctx, keyPrefix+key, raw, priorsTTL).Err(); err != nil {
		return fmt.Errorf("priors put %s: %w", key, err)
	}
	return nil
}

func (s *Redis) Close() error { return s.cli.Close() }

// Open picks the configured backend: redis when an address is set, the
// in-process map otherwise.
func Open(cfg config.Redis) (PriorsStore, error) {
	if cfg.Addr == "" {
		return NewMemory(), nil
	}
	return NewRedis(cfg)
}
