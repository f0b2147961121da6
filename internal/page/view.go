package page

import "Zaiqa/internal/cart"

// CartView is the JSON form of everything the cart renders.
type CartView struct {
	Open         bool       `json:"open"`
	Count        int        `json:"count"`
	BadgeVisible bool       `json:"badge_visible"`
	Rows         []cart.Row `json:"rows"`
	EmptyMessage string     `json:"empty_message,omitempty"`
	TotalText    string     `json:"total_text"`
	Total        int64      `json:"total"`
}

// view implements the cart rendering ports on top of CartView and collects
// the transient notices until the response is written.
type view struct {
	cart    CartView
	notices []string
	alerts  []string
}

func newView() *view {
	return &view{cart: CartView{Rows: []cart.Row{}}}
}

func (v *view) ShowCount(count int, visible bool) {
	v.cart.Count = count
	v.cart.BadgeVisible = visible
}

func (v *view) ShowRows(rows []cart.Row) {
	v.cart.Rows = rows
	v.cart.EmptyMessage = ""
}

func (v *view) ShowEmpty(msg string) {
	v.cart.Rows = []cart.Row{}
	v.cart.EmptyMessage = msg
}

func (v *view) ShowTotal(text string) { v.cart.TotalText = text }

func (v *view) Notify(msg string) { v.notices = append(v.notices, msg) }

func (v *view) Alert(msg string) { v.alerts = append(v.alerts, msg) }

func (v *view) SetOpen(open bool) { v.cart.Open = open }

func (v *view) IsOpen() bool { return v.cart.Open }

func (v *view) drain() (notices, alerts []string) {
	notices, alerts = v.notices, v.alerts
	v.notices, v.alerts = nil, nil
	if notices == nil {
		notices = []string{}
	}
	if alerts == nil {
		alerts = []string{}
	}
	return notices, alerts
}
