package cart

import (
	"context"
	"encoding/json"
	"fmt"
)

// SnapshotKey is the single entry the cart occupies in a visitor's store.
const SnapshotKey = "zaiqa_cart"

type KV interface {
	Get(ctx context.Context, scope, key string) (string, bool, error)
	Set(ctx context.Context, scope, key, value string) error
}

type snapshotItem struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Qty   int    `json:"qty"`
}

// SnapshotStore keeps the cart of one scope as a JSON array under SnapshotKey.
type SnapshotStore struct {
	KV    KV
	Scope string
}

func NewSnapshotStore(kv KV, scope string) *SnapshotStore {
	return &SnapshotStore{KV: kv, Scope: scope}
}

func (s *SnapshotStore) Load(ctx context.Context) ([]LineItem, error) {
	raw, ok, err := s.KV.Get(ctx, s.Scope, SnapshotKey)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if !ok {
		return []LineItem{}, nil
	}
	return DecodeSnapshot(raw), nil
}

func (s *SnapshotStore) Save(ctx context.Context, items []LineItem) error {
	raw, err := EncodeSnapshot(items)
	if err != nil {
		return err
	}
	if err := s.KV.Set(ctx, s.Scope, SnapshotKey, raw); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func EncodeSnapshot(items []LineItem) (string, error) {
	out := make([]snapshotItem, 0, len(items))
	for _, it := range items {
		out = append(out, snapshotItem{Name: it.Name, Price: it.UnitPrice, Qty: it.Qty})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(b), nil
}

// DecodeSnapshot never fails: anything that is not a well-formed list of
// line items counts as an empty cart.
func DecodeSnapshot(raw string) []LineItem {
	var in []snapshotItem
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return []LineItem{}
	}

	seen := make(map[string]struct{}, len(in))
	items := make([]LineItem, 0, len(in))
	for _, it := range in {
		if it.Name == "" || it.Price < 0 || it.Price > MaxUnitPrice || it.Qty < 1 || it.Qty > MaxQty {
			return []LineItem{}
		}
		if _, dup := seen[it.Name]; dup {
			return []LineItem{}
		}
		seen[it.Name] = struct{}{}
		items = append(items, LineItem{Name: it.Name, UnitPrice: it.Price, Qty: it.Qty})
	}
	return items
}
