// Package page holds the live state of one page load: the cart manager and
// its rendering, the modal overlays that share the scroll lock, and the
// theme. A Page serializes every action it receives, so two actions on the
// same page never interleave.
package page

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Zaiqa/internal/cart"
	"Zaiqa/internal/handoff"
	"Zaiqa/internal/menu"
	"Zaiqa/internal/theme"
)

var ErrUnknownOverlay = errors.New("unknown overlay")

type KV interface {
	cart.KV
	theme.KV
}

type Deps struct {
	KV        KV
	Contact   handoff.Contact
	Log       *zap.Logger
	OnDegrade func(err error)
}

type OverlayState struct {
	Product  *menu.Detail `json:"product,omitempty"`
	Lightbox string       `json:"lightbox,omitempty"`
	Nav      bool         `json:"nav"`
}

type State struct {
	PageID       string       `json:"page_id"`
	Cart         CartView     `json:"cart"`
	Notices      []string     `json:"notices"`
	Alerts       []string     `json:"alerts"`
	HandoffURL   string       `json:"handoff_url,omitempty"`
	ScrollLocked bool         `json:"scroll_locked"`
	Overlays     OverlayState `json:"overlays"`
	Theme        theme.Mode   `json:"theme"`
}

type Page struct {
	ID    string
	Scope string

	mu       sync.Mutex
	cart     *cart.Manager
	view     *view
	lock     *ScrollLock
	handoff  handoff.Recorder
	product  ProductModal
	lightbox Lightbox
	nav      Overlay
	pref     theme.Preference
	mode     theme.Mode
	left     bool

	lastSeen atomic.Int64
}

// New builds the page for one load and reads the visitor's persisted cart
// and theme.
func New(ctx context.Context, scope string, deps Deps) *Page {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	p := &Page{
		ID:    uuid.NewString(),
		Scope: scope,
		view:  newView(),
		lock:  NewScrollLock(),
	}
	p.product.Overlay = Overlay{name: OverlayProduct, lock: p.lock}
	p.lightbox.Overlay = Overlay{name: OverlayLightbox, lock: p.lock}
	p.nav = Overlay{name: OverlayNav, lock: p.lock}

	p.cart = cart.NewManager(cart.Deps{
		Store:     cart.NewSnapshotStore(deps.KV, scope),
		Badges:    []cart.Badge{p.view},
		List:      p.view,
		Total:     p.view,
		Notifier:  p.view,
		Surface:   p.view,
		Lock:      p.lock,
		Handoff:   &p.handoff,
		Contact:   deps.Contact,
		Log:       log.With(zap.String("page_id", p.ID)),
		OnDegrade: deps.OnDegrade,
	})
	ctx = context.WithoutCancel(ctx)
	p.cart.Initialize(ctx)

	p.pref = theme.Preference{KV: deps.KV, Scope: scope, Log: log}
	p.mode = p.pref.Load(ctx)

	p.touch(time.Now())
	return p
}

func (p *Page) State() State {
	return p.run(func() {})
}

// AddItem and the other mutations detach storage calls from the request's
// cancellation: a client hanging up mid-save is not a storage failure.
func (p *Page) AddItem(ctx context.Context, in cart.AddInput) State {
	ctx = context.WithoutCancel(ctx)
	return p.run(func() { p.cart.AddItem(ctx, in) })
}

func (p *Page) RemoveItem(ctx context.Context, name string) State {
	ctx = context.WithoutCancel(ctx)
	return p.run(func() { p.cart.RemoveItem(ctx, name) })
}

func (p *Page) ChangeQuantity(ctx context.Context, name string, delta int) State {
	ctx = context.WithoutCancel(ctx)
	return p.run(func() { p.cart.ChangeQuantity(ctx, name, delta) })
}

func (p *Page) OpenCart() State {
	return p.run(p.cart.OpenView)
}

func (p *Page) CloseCart(reason cart.CloseReason) State {
	return p.run(func() { p.cart.CloseView(reason) })
}

// Checkout reports whether an order was handed off.
func (p *Page) Checkout() (State, bool) {
	var ok bool
	st := p.run(func() { _, ok = p.cart.Checkout() })
	return st, ok
}

func (p *Page) ShowProduct(d menu.Detail) State {
	return p.run(func() { p.product.Show(d) })
}

func (p *Page) ShowLightbox(src string) State {
	return p.run(func() { p.lightbox.Show(src) })
}

func (p *Page) SetNav(open bool) State {
	return p.run(func() {
		if open {
			p.nav.Open()
		} else {
			p.nav.Close()
		}
	})
}

func (p *Page) CloseOverlay(name string, reason cart.CloseReason) (State, error) {
	var err error
	st := p.run(func() {
		switch name {
		case OverlayProduct:
			p.product.Close()
		case OverlayLightbox:
			p.lightbox.Close()
		case OverlayNav:
			p.nav.Close()
		case "cart":
			p.cart.CloseView(reason)
		default:
			err = ErrUnknownOverlay
		}
	})
	return st, err
}

func (p *Page) ToggleTheme(ctx context.Context) State {
	ctx = context.WithoutCancel(ctx)
	return p.run(func() { p.mode = p.pref.Toggle(ctx, p.mode) })
}

// Leave closes every surface as if the visitor navigated away. The
// persisted cart is untouched.
func (p *Page) Leave() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.left {
		return
	}
	p.left = true
	p.cart.CloseView(cart.CloseNavigateAway)
	p.product.Close()
	p.lightbox.Close()
	p.nav.Close()
}

func (p *Page) ScrollLocked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lock.Locked()
}

// Degraded reports whether this page's cart stopped persisting.
func (p *Page) Degraded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cart.Degraded()
}

func (p *Page) run(fn func()) State {
	p.mu.Lock()
	defer p.mu.Unlock()

	fn()
	p.touch(time.Now())
	return p.snapshot()
}

func (p *Page) snapshot() State {
	notices, alerts := p.view.drain()

	cv := p.view.cart
	cv.Total = p.cart.Total()
	cv.Rows = append([]cart.Row(nil), cv.Rows...)
	if cv.Rows == nil {
		cv.Rows = []cart.Row{}
	}

	st := State{
		PageID:       p.ID,
		Cart:         cv,
		Notices:      notices,
		Alerts:       alerts,
		HandoffURL:   p.handoff.Take(),
		ScrollLocked: p.lock.Locked(),
		Overlays: OverlayState{
			Lightbox: p.lightbox.Src,
			Nav:      p.nav.IsOpen(),
		},
		Theme: p.mode,
	}
	if p.product.Detail != nil {
		d := *p.product.Detail
		st.Overlays.Product = &d
	}
	return st
}

func (p *Page) touch(now time.Time) { p.lastSeen.Store(now.UnixNano()) }

func (p *Page) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, p.lastSeen.Load()))
}
