// Package cache keeps render records keyed by the (source, style, language) hash.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/radio-t/webradio/podcast"
)

// ErrNotFound is returned when no record exists for the key
var ErrNotFound = errors.New("render not found")

// Store persists render records
type Store interface {
	Get(ctx context.Context, key string) (podcast.Render, error)
	Save(ctx context.Context, render podcast.Render) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]podcast.Render, error)
	Close() error
}

// backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config selects and configures a backend
type Config struct {
	Backend    string
	RedisAddr  string
	RedisPass  string
	RedisDB    int
	Prefix     string // redis key prefix
	SQLitePath string
}

// New creates a store for the configured backend, memory is the default
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(ctx, RedisParams{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB, Prefix: cfg.Prefix})
	case BackendSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("sqlite path is required")
		}
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		return NewSQLiteStore(db)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
	}
}

// sortRenders orders records newest first, ties by key
func sortRenders(renders []podcast.Render) {
	sort.Slice(renders, func(i, j int) bool {
		if renders[i].CreatedAt.Equal(renders[j].CreatedAt) {
			return renders[i].Key < renders[j].Key
		}
		return renders[i].CreatedAt.After(renders[j].CreatedAt)
	})
}
