package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/store"
	"github.com/juliosud/yummo4-sub000/utils"
)

// Cart is the view of one session's cart.
type Cart struct {
	SessionID   string            `json:"session_id"`
	TableNumber string            `json:"table_number"`
	SessionCode string            `json:"session_code"`
	Items       []models.CartItem `json:"items"`
	TotalItems  int               `json:"total_items"`
	TotalPrice  decimal.Decimal   `json:"total_price"`
	// Stale is set when the store could not be reached and the view was
	// served from the local mirror.
	Stale bool `json:"stale,omitempty"`
}

func newCart(sc SessionContext, items []models.CartItem) Cart {
	cart := Cart{
		SessionID:   sc.SessionID(),
		TableNumber: sc.TableID,
		SessionCode: sc.SessionCode,
		Items:       items,
		TotalPrice:  decimal.Zero,
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	for _, item := range items {
		cart.TotalItems += item.Quantity
		cart.TotalPrice = cart.TotalPrice.Add(item.LineTotal())
	}
	cart.TotalPrice = cart.TotalPrice.Round(2)
	return cart
}

// CartService keeps carts keyed by the derived session id. The store is the
// source of truth; the mirror only holds what the store last confirmed.
type CartService struct {
	Store store.Store

	mu     sync.RWMutex
	mirror map[string][]models.CartItem
}

func NewCartService(s store.Store) *CartService {
	return &CartService{Store: s, mirror: make(map[string][]models.CartItem)}
}

// Add puts one unit of a menu item into the cart.
func (c *CartService) Add(ctx context.Context, sc SessionContext, menuItemID uint) (Cart, error) {
	existing, err := c.Store.GetCartItem(ctx, sc.SessionID(), menuItemID)
	switch {
	case err == nil:
		return c.SetQuantity(ctx, sc, menuItemID, existing.Quantity+1)
	case !errors.Is(err, store.ErrNotFound):
		return Cart{}, err
	}

	menu, err := c.Store.GetMenuItem(ctx, menuItemID)
	if errors.Is(err, store.ErrNotFound) {
		return Cart{}, ErrMenuItemNotFound
	}
	if err != nil {
		return Cart{}, err
	}
	if !menu.Available {
		return Cart{}, ErrMenuItemUnavailable
	}

	item := &models.CartItem{
		SessionID:   sc.SessionID(),
		MenuItemID:  menu.ID,
		TableNumber: sc.TableID,
		Quantity:    1,
		Price:       menu.Price,
		ItemName:    menu.Name,
		ItemImage:   menu.ImageURL,
	}
	if err := c.Store.SaveCartItem(ctx, item); err != nil {
		return Cart{}, fmt.Errorf("add %d to cart: %w", menuItemID, err)
	}
	return c.refresh(ctx, sc)
}

// Remove takes one unit out; the line disappears when its last unit goes.
func (c *CartService) Remove(ctx context.Context, sc SessionContext, menuItemID uint) (Cart, error) {
	existing, err := c.Store.GetCartItem(ctx, sc.SessionID(), menuItemID)
	if errors.Is(err, store.ErrNotFound) {
		return Cart{}, ErrCartItemNotFound
	}
	if err != nil {
		return Cart{}, err
	}
	return c.SetQuantity(ctx, sc, menuItemID, existing.Quantity-1)
}

// SetQuantity overwrites a line's quantity; n <= 0 deletes the line.
func (c *CartService) SetQuantity(ctx context.Context, sc SessionContext, menuItemID uint, n int) (Cart, error) {
	sessionID := sc.SessionID()
	if n <= 0 {
		if err := c.Store.DeleteCartItem(ctx, sessionID, menuItemID); err != nil {
			return Cart{}, fmt.Errorf("remove %d from cart: %w", menuItemID, err)
		}
		return c.refresh(ctx, sc)
	}

	item, err := c.Store.GetCartItem(ctx, sessionID, menuItemID)
	if errors.Is(err, store.ErrNotFound) {
		return Cart{}, ErrCartItemNotFound
	}
	if err != nil {
		return Cart{}, err
	}
	item.Quantity = n
	if err := c.Store.SaveCartItem(ctx, item); err != nil {
		return Cart{}, fmt.Errorf("set quantity of %d: %w", menuItemID, err)
	}
	return c.refresh(ctx, sc)
}

func (c *CartService) Clear(ctx context.Context, sc SessionContext) error {
	sessionID := sc.SessionID()
	if err := c.Store.ClearCart(ctx, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	c.Forget(sessionID)
	return nil
}

// Forget drops the mirrored rows of sessions that can no longer be read.
func (c *CartService) Forget(sessionIDs ...string) {
	c.mu.Lock()
	for _, id := range sessionIDs {
		delete(c.mirror, id)
	}
	c.mu.Unlock()
}

// Get reads the cart from the store. Only when the store is unavailable is
// the last confirmed mirror returned, flagged Stale.
func (c *CartService) Get(ctx context.Context, sc SessionContext) (Cart, error) {
	cart, err := c.refresh(ctx, sc)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, store.ErrUnavailable) {
		return Cart{}, err
	}

	c.mu.RLock()
	items, ok := c.mirror[sc.SessionID()]
	c.mu.RUnlock()
	if !ok {
		return Cart{}, err
	}
	utils.ErrorLogger.WithFields(logrus.Fields{"table": sc.TableID, "session": sc.SessionCode}).
		Warnf("serving cart from mirror: %v", err)
	cart = newCart(sc, append([]models.CartItem(nil), items...))
	cart.Stale = true
	return cart, nil
}

// Items returns the confirmed rows straight from the store.
func (c *CartService) Items(ctx context.Context, sc SessionContext) ([]models.CartItem, error) {
	return c.Store.ListCartItems(ctx, sc.SessionID())
}

func (c *CartService) refresh(ctx context.Context, sc SessionContext) (Cart, error) {
	sessionID := sc.SessionID()
	items, err := c.Store.ListCartItems(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}
	c.mu.Lock()
	c.mirror[sessionID] = append([]models.CartItem(nil), items...)
	c.mu.Unlock()
	return newCart(sc, items), nil
}
