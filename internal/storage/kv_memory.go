package storage

import (
	"context"
	"sync"
)

type MemKV struct {
	mu sync.RWMutex
	m  map[string]map[string]string
}

func NewMemKV() *MemKV {
	return &MemKV{m: map[string]map[string]string{}}
}

func (s *MemKV) Ping(ctx context.Context) error { return nil }

func (s *MemKV) Close() error { return nil }

func (s *MemKV) Get(ctx context.Context, scope, key string) (string, bool, error) {
	if scope == "" {
		return "", false, ErrEmptyScope
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.m[scope][key]
	return v, ok, nil
}

func (s *MemKV) Set(ctx context.Context, scope, key, value string) error {
	if scope == "" {
		return ErrEmptyScope
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.m[scope]
	if !ok {
		entries = map[string]string{}
		s.m[scope] = entries
	}
	entries[key] = value
	return nil
}
