// Package redisstore persists the durable session record in Redis so several
// processes (or machines) can share one signed-in session.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/modconsole/pkg/authsdk"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "modconsole"

// Options configures a Store.
type Options struct {
	// Prefix is prepended to the key. Default: DefaultPrefix.
	Prefix string

	// Profile distinguishes several sessions in one Redis database.
	// Default: authsdk.StorageKey.
	Profile string

	// TTL expires the record after inactivity. Zero keeps it forever. It
	// should not exceed the backend's refresh token lifetime.
	TTL time.Duration
}

// Store implements authsdk.Persister against a single Redis key.
type Store struct {
	rdb redis.UniversalClient
	key string
	ttl time.Duration
}

// New returns a store using rdb. The client is owned by the caller.
func New(rdb redis.UniversalClient, opts Options) *Store {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	profile := opts.Profile
	if profile == "" {
		profile = authsdk.StorageKey
	}

	return &Store{
		rdb: rdb,
		key: prefix + ":session:" + profile,
		ttl: opts.TTL,
	}
}

// Key returns the Redis key holding the record.
func (s *Store) Key() string { return s.key }

// Ping verifies the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Load implements authsdk.Persister.
func (s *Store) Load(ctx context.Context) (authsdk.PersistedState, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return authsdk.PersistedState{}, nil
	}
	if err != nil {
		return authsdk.PersistedState{}, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	var state authsdk.PersistedState
	if err := json.Unmarshal(raw, &state); err != nil {
		return authsdk.PersistedState{}, fmt.Errorf("decode session state: %w", err)
	}
	return state, nil
}

// Save implements authsdk.Persister. Each save renews the TTL.
func (s *Store) Save(ctx context.Context, state authsdk.PersistedState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	if err := s.rdb.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Clear implements authsdk.Persister.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", s.key, err)
	}
	return nil
}

var _ authsdk.Persister = (*Store)(nil)
