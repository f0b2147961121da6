package theme

import (
	"context"

	"go.uber.org/zap"
)

const Key = "zaiqa_theme"

type Mode string

const (
	Dark  Mode = "dark"
	Light Mode = "light"
)

type KV interface {
	Get(ctx context.Context, scope, key string) (string, bool, error)
	Set(ctx context.Context, scope, key, value string) error
}

// Preference is one visitor's saved theme. Anything other than a saved
// "light" reads as dark.
type Preference struct {
	KV    KV
	Scope string
	Log   *zap.Logger
}

func (p Preference) Load(ctx context.Context) Mode {
	v, ok, err := p.KV.Get(ctx, p.Scope, Key)
	if err != nil {
		p.logger().Warn("theme read failed", zap.Error(err))
		return Dark
	}
	if ok && Mode(v) == Light {
		return Light
	}
	return Dark
}

func (p Preference) Toggle(ctx context.Context, current Mode) Mode {
	next := Light
	if current == Light {
		next = Dark
	}
	if err := p.KV.Set(ctx, p.Scope, Key, string(next)); err != nil {
		p.logger().Warn("theme write failed", zap.Error(err))
	}
	return next
}

func (p Preference) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}
