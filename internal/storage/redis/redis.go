// Package redis implements the storage interfaces using Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-browser-assistant-service/internal/config"
	"ai-browser-assistant-service/internal/storage"
)

// Store implements the storage.Store interface using Redis.
type Store struct {
	client *redis.Client
	usage  *usageLedger
	tasks  *taskStore
}

// Open creates a new Redis-backed storage instance.
func Open(cfg config.RedisConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{
		client: client,
		usage:  &usageLedger{client: client},
		tasks:  &taskStore{client: client},
	}, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Usage returns the UsageLedger implementation.
func (s *Store) Usage() storage.UsageLedger {
	return s.usage
}

// Tasks returns the TaskStore implementation.
func (s *Store) Tasks() storage.TaskStore {
	return s.tasks
}
