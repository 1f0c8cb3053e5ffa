// Package redisstore keeps console snapshots in Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ai-engineer-001/upcraft-crm/internal/store"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "console:state:"
	indexKey      = "console:states"
)

// Store implements snapshot storage using Redis
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects to redisURL and verifies the connection.
func New(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewWithClient(client), nil
}

// NewWithClient creates a store from an existing Redis client
func NewWithClient(client *redis.Client) *Store {
	return &Store{
		client: client,
		prefix: defaultPrefix,
	}
}

// WithTTL makes saved snapshots expire. Zero keeps them forever.
func (s *Store) WithTTL(ttl time.Duration) *Store {
	s.ttl = ttl
	return s
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

// SaveState stores the snapshot under name and records the name in the index.
func (s *Store) SaveState(ctx context.Context, name string, state store.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(name), payload, s.ttl)
	pipe.SAdd(ctx, indexKey, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// LoadState returns store.ErrNotFound when the snapshot is missing or expired.
func (s *Store) LoadState(ctx context.Context, name string) (store.State, error) {
	payload, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.State{}, fmt.Errorf("snapshot %s: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return store.State{}, fmt.Errorf("load state: %w", err)
	}

	var state store.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return store.State{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, nil
}

// DeleteState removes a snapshot. Deleting a missing snapshot is not an error.
func (s *Store) DeleteState(ctx context.Context, name string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(name))
	pipe.SRem(ctx, indexKey, name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

// Names lists saved snapshot names in sorted order.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
