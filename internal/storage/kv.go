package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrEmptyScope    = errors.New("empty scope")
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// KV is a per-visitor key-value store. A scope plays the role of a browser
// profile: every key lives inside exactly one scope.
type KV interface {
	Get(ctx context.Context, scope, key string) (string, bool, error)
	Set(ctx context.Context, scope, key, value string) error
	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	Driver string
	DSN    string
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func Open(cfg Config) (KV, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemKV(), nil
	case DriverSQLite:
		kv, err := OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case DriverPostgres:
		kv, err := OpenPostgres(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
