package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Fixed keys under which the planner persists its state
const (
	ConfigKey   = "timetable/config"
	VariantsKey = "timetable/variants"
)

var ErrNotFound = errors.New("key not found")

// KV is a small key/value store holding serialized documents
type KV interface {
	// Get returns ErrNotFound when key has never been written or was deleted
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

type Options struct {
	Backend Backend
	// Path is the directory of the file backend or the database file of the sqlite backend
	Path        string
	RedisAddr   string
	RedisPrefix string
}

// Open builds the backend selected by options
func Open(ctx context.Context, options Options) (KV, error) {
	switch Backend(strings.ToLower(string(options.Backend))) {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendFile:
		return NewFile(options.Path)
	case BackendSQLite:
		return NewSQLite(options.Path)
	case BackendRedis:
		return NewRedis(ctx, options.RedisAddr, options.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", options.Backend)
	}
}
