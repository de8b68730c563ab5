// Package cache provides Redis-backed caching with lifecycle coordination.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/informe-labs/informe/pkg/lifecycle"
)

// ErrMiss indicates the requested key is not cached.
var ErrMiss = errors.New("cache miss")

// System manages cache operations and lifecycle coordination.
type System interface {
	// Start registers startup and shutdown hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
	// Get returns the cached value for key, or ErrMiss.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key using the configured TTL.
	Set(ctx context.Context, key, value string) error
	// Invalidate removes key from the cache. Missing keys are not an error.
	Invalidate(ctx context.Context, key string) error
}

type system struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a cache system from the given configuration. The client
// connects lazily; Start verifies connectivity.
func New(cfg *Config, logger *slog.Logger) System {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &system{
		client: client,
		ttl:    cfg.TTLDuration(),
		logger: logger.With("system", "cache"),
	}
}

func (s *system) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting cache system")

	lc.OnStartup(func() {
		if err := s.client.Ping(lc.Context()).Err(); err != nil {
			s.logger.Error("cache ping failed", "error", err)
			return
		}
		s.logger.Info("cache connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := s.client.Close(); err != nil {
			s.logger.Error("cache close failed", "error", err)
		}
	})

	return nil
}

func (s *system) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (s *system) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

func (s *system) Invalidate(ctx context.Context, key string) error {
	err := s.client.Del(ctx, key).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
