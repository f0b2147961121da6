package page

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry tracks the current page of every visitor scope. A new page load
// replaces the previous page of that scope; tabs sharing a scope therefore
// share the most recently loaded page, and the persisted snapshot follows
// last-write-wins.
type Registry struct {
	deps Deps
	idle time.Duration

	mu    sync.Mutex
	pages map[string]*Page
}

func NewRegistry(deps Deps, idle time.Duration) *Registry {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Registry{deps: deps, idle: idle, pages: map[string]*Page{}}
}

func (r *Registry) Load(ctx context.Context, scope string) *Page {
	p := New(ctx, scope, r.deps)

	r.mu.Lock()
	old := r.pages[scope]
	r.pages[scope] = p
	r.mu.Unlock()

	if old != nil {
		old.Leave()
	}
	return p
}

// Current returns the live page of scope, loading one if the visitor has
// none (first request, or the previous page idled out).
func (r *Registry) Current(ctx context.Context, scope string) *Page {
	r.mu.Lock()
	p, ok := r.pages[scope]
	r.mu.Unlock()
	if ok {
		return p
	}

	fresh := New(ctx, scope, r.deps)

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pages[scope]; ok {
		return p
	}
	r.pages[scope] = fresh
	return fresh
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

// Sweep drops pages idle for longer than the idle timeout and returns how
// many it dropped.
func (r *Registry) Sweep(now time.Time) int {
	var expired []*Page

	r.mu.Lock()
	for scope, p := range r.pages {
		if p.idleSince(now) > r.idle {
			expired = append(expired, p)
			delete(r.pages, scope)
		}
	}
	r.mu.Unlock()

	for _, p := range expired {
		p.Leave()
	}
	return len(expired)
}

func (r *Registry) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := r.Sweep(now); n > 0 {
				r.deps.Log.Debug("pages expired", zap.Int("count", n))
			}
		}
	}
}
