package cart

import (
	"context"

	"go.uber.org/zap"

	"Zaiqa/internal/handoff"
	"Zaiqa/internal/money"
)

const (
	EmptyMessage      = "Your cart is empty. Add some delicious food!"
	EmptyCheckoutText = "Your cart is empty!"

	lockOwner = "cart"
)

type LineItem struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"price"`
	Qty       int    `json:"qty"`
}

// Deps wires a Manager to its collaborators. Only Store is required; any
// other nil collaborator means that rendering step is skipped.
type Deps struct {
	Store    Storage
	Badges   []Badge
	List     List
	Total    TotalDisplay
	Notifier Notifier
	Surface  Surface
	Lock     ScrollLock
	Handoff  Handoff
	Contact  handoff.Contact
	Log      *zap.Logger

	// OnDegrade is called once, when persistence is abandoned for the page.
	OnDegrade func(err error)
}

// Manager owns the line items of one page. It is not safe for concurrent
// use; callers serialize access the way a page serializes its events.
type Manager struct {
	deps     Deps
	log      *zap.Logger
	items    []LineItem
	total    int64
	degraded bool
}

func NewManager(deps Deps) *Manager {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{deps: deps, log: log, items: []LineItem{}}
}

// Initialize loads the persisted snapshot as the sole source of truth,
// closes the view and paints the badge and total.
func (m *Manager) Initialize(ctx context.Context) {
	items, err := m.deps.Store.Load(ctx)
	if err != nil {
		m.degrade("load", err)
		items = nil
	}
	if items == nil {
		items = []LineItem{}
	}
	m.items = items

	if m.deps.Surface != nil {
		m.deps.Surface.SetOpen(false)
	}
	m.updateTotal()
	m.renderList()
}

func (m *Manager) AddItem(ctx context.Context, in AddInput) bool {
	if !in.valid() {
		m.log.Debug("add skipped: invalid input", zap.String("name", in.Name), zap.Int64("price", in.UnitPrice))
		return false
	}

	if i := m.index(in.Name); i >= 0 {
		if m.items[i].Qty >= MaxQty {
			m.log.Debug("add skipped: quantity at limit", zap.String("name", in.Name))
			return false
		}
		m.items[i].Qty++
	} else {
		m.items = append(m.items, LineItem{Name: in.Name, UnitPrice: in.UnitPrice, Qty: 1})
	}
	m.commit(ctx)

	if m.deps.Notifier != nil {
		m.deps.Notifier.Notify("Added " + in.Name + " to cart!")
	}
	return true
}

// RemoveItem is a no-op for names not in the cart.
func (m *Manager) RemoveItem(ctx context.Context, name string) bool {
	i := m.index(name)
	if i < 0 {
		return false
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	m.commit(ctx)
	return true
}

// ChangeQuantity removes the item when the new quantity would drop to zero
// or below, and refuses to raise it past MaxQty.
func (m *Manager) ChangeQuantity(ctx context.Context, name string, delta int) bool {
	i := m.index(name)
	if i < 0 {
		return false
	}
	qty := m.items[i].Qty
	if delta <= -qty {
		return m.RemoveItem(ctx, name)
	}
	if delta > MaxQty-qty {
		return false
	}
	m.items[i].Qty += delta
	m.commit(ctx)
	return true
}

func (m *Manager) OpenView() {
	if m.deps.Surface == nil {
		return
	}
	m.renderList()
	m.deps.Surface.SetOpen(true)
	if m.deps.Lock != nil {
		m.deps.Lock.Lock(lockOwner)
	}
}

func (m *Manager) CloseView(reason CloseReason) {
	if m.deps.Surface == nil {
		return
	}
	m.deps.Surface.SetOpen(false)
	if m.deps.Lock != nil {
		m.deps.Lock.Unlock(lockOwner)
	}
	m.log.Debug("cart view closed", zap.String("reason", string(reason)))
}

// Checkout hands the order off to the configured contact. It reports false
// when the cart is empty and nothing was handed off.
func (m *Manager) Checkout() (string, bool) {
	if len(m.items) == 0 {
		if m.deps.Notifier != nil {
			m.deps.Notifier.Alert(EmptyCheckoutText)
		}
		return "", false
	}
	if err := m.deps.Contact.Validate(); err != nil {
		m.log.Error("checkout skipped: contact misconfigured", zap.Error(err))
		return "", false
	}

	lines := make([]handoff.OrderLine, 0, len(m.items))
	for _, it := range m.items {
		lines = append(lines, handoff.OrderLine{Name: it.Name, Qty: it.Qty, LineTotal: it.UnitPrice * int64(it.Qty)})
	}
	uri := m.deps.Contact.Link(handoff.OrderMessage(lines, m.total))

	if m.deps.Handoff != nil {
		m.deps.Handoff.Deliver(uri)
	}
	return uri, true
}

func (m *Manager) Items() []LineItem {
	out := make([]LineItem, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Manager) Total() int64 { return m.total }

func (m *Manager) Count() int {
	n := 0
	for _, it := range m.items {
		n += it.Qty
	}
	return n
}

// Degraded reports whether the cart has stopped persisting for this page.
func (m *Manager) Degraded() bool { return m.degraded }

func (m *Manager) index(name string) int {
	for i := range m.items {
		if m.items[i].Name == name {
			return i
		}
	}
	return -1
}

func (m *Manager) commit(ctx context.Context) {
	m.save(ctx)
	m.updateTotal()
	if m.deps.Surface == nil || m.deps.Surface.IsOpen() {
		m.renderList()
	}
}

func (m *Manager) save(ctx context.Context) {
	if m.degraded {
		return
	}
	if err := m.deps.Store.Save(ctx, m.items); err != nil {
		m.degrade("save", err)
	}
}

func (m *Manager) degrade(op string, err error) {
	if m.degraded {
		return
	}
	m.degraded = true
	m.log.Warn("cart storage unavailable, continuing in memory",
		zap.String("op", op),
		zap.Error(err),
	)
	if m.deps.OnDegrade != nil {
		m.deps.OnDegrade(err)
	}
}

func (m *Manager) updateTotal() {
	var total int64
	for _, it := range m.items {
		total += it.UnitPrice * int64(it.Qty)
	}
	m.total = total

	count := m.Count()
	for _, b := range m.deps.Badges {
		if b != nil {
			b.ShowCount(count, count > 0)
		}
	}
	if m.deps.Total != nil {
		m.deps.Total.ShowTotal(money.Format(m.total))
	}
}

func (m *Manager) renderList() {
	if m.deps.List == nil {
		return
	}
	if len(m.items) == 0 {
		m.deps.List.ShowEmpty(EmptyMessage)
		return
	}

	rows := make([]Row, 0, len(m.items))
	for _, it := range m.items {
		line := it.UnitPrice * int64(it.Qty)
		rows = append(rows, Row{
			Name:      it.Name,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice,
			LineTotal: line,
			PriceText: money.Format(line),
		})
	}
	m.deps.List.ShowRows(rows)
}
