package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/saas-admin-client/storage"
	"github.com/redis/go-redis/v9"
)

var _ storage.Persister = (*Store)(nil)

// Store keeps each record as a JSON string under <prefix><name>.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Option defines a function type to modify the Store instance.
type Option func(*Store)

// WithTTL expires records that have not been written for ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

func New(client *redis.Client, prefix string, options ...Option) *Store {
	s := &Store{
		client: client,
		prefix: prefix,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Dial connects to addr and pings it before returning.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("[redisstore Dial] ping %s: %w", addr, err)
	}
	return client, nil
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func (s *Store) Load(ctx context.Context, name string, v any) (bool, error) {
	val, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redisstore: get %s: %w", name, err)
	}
	if err := json.Unmarshal(val, v); err != nil {
		return false, fmt.Errorf("redisstore: decode %s: %w", name, err)
	}
	return true, nil
}

func (s *Store) Save(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redisstore: encode %s: %w", name, err)
	}
	return s.client.Set(ctx, s.key(name), data, s.ttl).Err()
}

func (s *Store) Delete(ctx context.Context, name string) error {
	return s.client.Del(ctx, s.key(name)).Err()
}
