package services

import (
	"sort"
	"sync"

	"github.com/juliosud/yummo4-sub000/models"
)

// OrderBoard is the kitchen's live view of non-archived orders. Status
// changes land here before the store confirms them and are overwritten
// with the stored row when a write fails.
type OrderBoard struct {
	mu     sync.RWMutex
	orders map[uint]models.Order
}

func NewOrderBoard() *OrderBoard {
	return &OrderBoard{orders: make(map[uint]models.Order)}
}

// Load replaces the board with the given orders.
func (b *OrderBoard) Load(orders []models.Order) {
	next := make(map[uint]models.Order, len(orders))
	for _, o := range orders {
		if o.Status == models.OrderStatusArchived {
			continue
		}
		next[o.ID] = o
	}
	b.mu.Lock()
	b.orders = next
	b.mu.Unlock()
}

// Put stores an order; archived orders leave the board.
func (b *OrderBoard) Put(o models.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o.Status == models.OrderStatusArchived {
		delete(b.orders, o.ID)
		return
	}
	b.orders[o.ID] = o
}

func (b *OrderBoard) Get(id uint) (models.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.orders[id]
	return o, ok
}

func (b *OrderBoard) Remove(id uint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.orders, id)
}

// Snapshot returns the board ordered oldest first.
func (b *OrderBoard) Snapshot() []models.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	orders := make([]models.Order, 0, len(b.orders))
	for _, o := range b.orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders
}
