package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/radio-t/webradio/podcast"
)

const defaultRedisPrefix = "webradio:render:"

// RedisParams contains redis connection settings
type RedisParams struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore keeps records as json values in redis
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redis and checks the connection
func NewRedisStore(ctx context.Context, params RedisParams) (*RedisStore, error) {
	if params.Addr == "" {
		return nil, errors.New("redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     params.Addr,
		Password: params.Password,
		DB:       params.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := params.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Get returns the record for the key
func (s *RedisStore) Get(ctx context.Context, key string) (podcast.Render, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return podcast.Render{}, ErrNotFound
		}
		return podcast.Render{}, fmt.Errorf("failed to get render %s: %w", key, err)
	}
	var r podcast.Render
	if err := json.Unmarshal(raw, &r); err != nil {
		return podcast.Render{}, fmt.Errorf("failed to decode render %s: %w", key, err)
	}
	return r, nil
}

// Save stores the record without expiration
func (s *RedisStore) Save(ctx context.Context, render podcast.Render) error {
	if render.Key == "" {
		return errors.New("render key is required")
	}
	data, err := json.Marshal(render)
	if err != nil {
		return fmt.Errorf("failed to encode render: %w", err)
	}
	if err := s.client.Set(ctx, s.key(render.Key), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save render %s: %w", render.Key, err)
	}
	return nil
}

// Delete removes the record
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete render %s: %w", key, err)
	}
	return nil
}

// List scans all records under the prefix, newest first
func (s *RedisStore) List(ctx context.Context) ([]podcast.Render, error) {
	var cursor uint64
	res := make([]podcast.Render, 0)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan renders: %w", err)
		}
		for _, k := range keys {
			r, err := s.Get(ctx, strings.TrimPrefix(k, s.prefix))
			if errors.Is(err, ErrNotFound) {
				continue // removed while scanning
			}
			if err != nil {
				return nil, err
			}
			res = append(res, r)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	sortRenders(res)
	return res, nil
}

// Close closes the redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
