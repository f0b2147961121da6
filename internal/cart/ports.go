package cart

import "context"

// Storage persists the full item list. Load returns an empty list for a
// missing or unreadable snapshot; an error means the backend itself failed.
type Storage interface {
	Load(ctx context.Context) ([]LineItem, error)
	Save(ctx context.Context, items []LineItem) error
}

type Row struct {
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
	PriceText string `json:"price_text"`
}

type Badge interface {
	ShowCount(count int, visible bool)
}

type List interface {
	ShowRows(rows []Row)
	ShowEmpty(msg string)
}

type TotalDisplay interface {
	ShowTotal(text string)
}

type Notifier interface {
	Notify(msg string)
	Alert(msg string)
}

type Surface interface {
	SetOpen(open bool)
	IsOpen() bool
}

type ScrollLock interface {
	Lock(owner string)
	Unlock(owner string)
}

type Handoff interface {
	Deliver(uri string)
}

type CloseReason string

const (
	CloseExplicit     CloseReason = "explicit"
	CloseOutsideClick CloseReason = "outside_click"
	CloseCancelKey    CloseReason = "cancel_key"
	CloseNavigateAway CloseReason = "navigate_away"
)

func ParseCloseReason(s string) (CloseReason, bool) {
	switch r := CloseReason(s); r {
	case CloseExplicit, CloseOutsideClick, CloseCancelKey, CloseNavigateAway:
		return r, true
	case "":
		return CloseExplicit, true
	default:
		return "", false
	}
}
