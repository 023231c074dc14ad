package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type redisStore struct {
	rdb    goredis.UniversalClient
	prefix string
}

// NewRedis connects to addr and verifies the connection with a ping
func NewRedis(ctx context.Context, addr, prefix string) (KV, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisFromClient(rdb, prefix), nil
}

// NewRedisFromClient wraps an existing client; keys are stored as prefix + key
func NewRedisFromClient(rdb goredis.UniversalClient, prefix string) KV {
	return &redisStore{rdb: rdb, prefix: prefix}
}

func (store *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := store.rdb.Get(ctx, store.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("redis get %v: %w", key, err)
	}
	return value, nil
}

func (store *redisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := store.rdb.Set(ctx, store.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %v: %w", key, err)
	}
	return nil
}

func (store *redisStore) Delete(ctx context.Context, key string) error {
	if err := store.rdb.Del(ctx, store.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %v: %w", key, err)
	}
	return nil
}

func (store *redisStore) Close() error { return store.rdb.Close() }
