package menu

import (
	"context"
	"sync"
)

// MemStore keeps the menu in insertion order, which is also display order.
type MemStore struct {
	mu    sync.RWMutex
	items []Item
}

func NewMemStore(items ...Item) *MemStore {
	if len(items) == 0 {
		items = DefaultItems()
	}
	out := make([]Item, len(items))
	copy(out, items)
	return &MemStore{items: out}
}

func DefaultItems() []Item {
	return []Item{
		{ID: "biryani", Name: "Chicken Biryani", Category: "Rice & Biryani", Description: "Fragrant basmati layered with spiced chicken.", Image: "/images/biryani.jpg", Price: 500},
		{ID: "pulao", Name: "Beef Pulao", Category: "Rice & Biryani", Description: "Yakhni rice with tender beef.", Image: "/images/pulao.jpg", Price: 650},
		{ID: "seekh", Name: "Seekh Kebab", Category: "BBQ", Description: "Minced beef skewers off the coals.", Image: "/images/seekh.jpg", Price: 300},
		{ID: "tikka", Name: "Chicken Tikka", Category: "BBQ", Description: "Charred leg piece, house marinade.", Image: "/images/tikka.jpg", Price: 450},
		{ID: "karahi", Name: "Chicken Karahi", Category: "Karahi & Handi", Description: "Tomato, green chilli and ginger, cooked in the wok.", Image: "/images/karahi.jpg", Price: 1200},
		{ID: "naan", Name: "Garlic Naan", Category: "Breads", Description: "Tandoor naan brushed with garlic butter.", Image: "/images/naan.jpg", Price: 60},
		{ID: "lassi", Name: "Sweet Lassi", Category: "Drinks", Description: "Chilled yoghurt, sugar, a pinch of cardamom.", Image: "/images/lassi.jpg", Price: 180},
	}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) List(ctx context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id string) (Item, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.items {
		if it.ID == id {
			return it, true, nil
		}
	}
	return Item{}, false, nil
}
