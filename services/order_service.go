package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/store"
	"github.com/juliosud/yummo4-sub000/utils"
)

// refetchTimeout bounds the read that repairs the board after a failed write.
const refetchTimeout = 3 * time.Second

// CreateOrderResult reports whether the cart was emptied after the order
// was written. CartCleared=false means the order exists but the cart still
// holds its lines.
type CreateOrderResult struct {
	Order       *models.Order `json:"order"`
	CartCleared bool          `json:"cart_cleared"`
}

// ItemInput is one line of a staff correction.
type ItemInput struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required"`
}

type OrderService struct {
	Store store.Store
	Carts *CartService
	Board *OrderBoard
	// OnChange is called with every order the board shows, including
	// optimistic and repaired states.
	OnChange func(models.Order)
	Now      func() time.Time
}

func NewOrderService(s store.Store, carts *CartService, board *OrderBoard) *OrderService {
	return &OrderService{Store: s, Carts: carts, Board: board, Now: time.Now}
}

func (o *OrderService) publish(order models.Order) {
	o.Board.Put(order)
	if o.OnChange != nil {
		o.OnChange(order)
	}
}

// LoadBoard rebuilds the kitchen board from the store.
func (o *OrderService) LoadBoard(ctx context.Context) error {
	orders, err := o.Store.ListOrders(ctx, store.OrderFilter{})
	if err != nil {
		return err
	}
	o.Board.Load(orders)
	return nil
}

// CreateFromCart turns the session's cart into an order. The cart is only
// cleared after the order is stored; a failed write leaves it untouched.
func (o *OrderService) CreateFromCart(ctx context.Context, sc SessionContext, initial models.OrderStatus, estimatedMinutes *int) (*CreateOrderResult, error) {
	if initial == "" {
		initial = models.OrderStatusPending
	}
	if initial != models.OrderStatusPending && initial != models.OrderStatusPreparing {
		return nil, ErrInvalidInitialStatus
	}
	if estimatedMinutes != nil && *estimatedMinutes < 0 {
		return nil, &ValidationError{Fields: map[string]string{"estimated_minutes": "must not be negative"}}
	}

	lines, err := o.Carts.Items(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			Price:      line.Price,
			ItemName:   line.ItemName,
		})
	}
	code := sc.SessionCode
	order := &models.Order{
		TableNumber:      sc.TableID,
		SessionCode:      &code,
		Status:           initial,
		Total:            models.ComputeTotal(items),
		EstimatedMinutes: estimatedMinutes,
		CreatedAt:        o.Now(),
		OrderItems:       items,
	}
	if err := o.Store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	o.publish(*order)

	fields := logrus.Fields{"order": order.ID, "table": sc.TableID, "session": sc.SessionCode}
	utils.InfoLogger.WithFields(fields).Infof("order created with status %s, total %s", order.Status, order.Total.StringFixed(2))

	result := &CreateOrderResult{Order: order, CartCleared: true}
	if err := o.Carts.Clear(ctx, sc); err != nil {
		utils.ErrorLogger.WithFields(fields).Errorf("order stored but cart not cleared: %v", err)
		result.CartCleared = false
	}
	return result, nil
}

// Transition moves an order along the state machine. The board shows the
// new status before the store confirms it; when the write fails the board
// is repaired from the store and the write error is returned.
func (o *OrderService) Transition(ctx context.Context, id uint, to models.OrderStatus, actor Actor) (*models.Order, error) {
	if !models.ValidOrderStatus(to) {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown order status"}}
	}

	current, err := o.current(ctx, id)
	if err != nil {
		return nil, err
	}
	from := current.Status
	if !CanTransition(from, to, actor) {
		return nil, fmt.Errorf("%w: %s to %s by %s", ErrInvalidTransition, from, to, actor)
	}

	now := o.Now()
	optimistic := *current
	optimistic.Status = to
	optimistic.UpdatedAt = now
	o.publish(optimistic)

	if err := o.Store.UpdateOrderStatus(ctx, id, from, to, now); err != nil {
		o.repair(ctx, id)
		fields := logrus.Fields{"order": id, "from": from, "to": to}
		utils.ErrorLogger.WithFields(fields).Errorf("status update rolled back: %v", err)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order %d: %w", id, err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{"order": id, "from": from, "to": to, "actor": actor}).Info("order status changed")
	return &optimistic, nil
}

// TransitionForSession is Transition for a customer, limited to orders
// placed from the customer's own session.
func (o *OrderService) TransitionForSession(ctx context.Context, sc SessionContext, id uint, to models.OrderStatus) (*models.Order, error) {
	order, err := o.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.TableNumber != sc.TableID || order.SessionCode == nil || *order.SessionCode != sc.SessionCode {
		return nil, ErrOrderNotFound
	}
	return o.Transition(ctx, id, to, ActorCustomer)
}

// current prefers the board, which already carries unconfirmed changes.
func (o *OrderService) current(ctx context.Context, id uint) (*models.Order, error) {
	if order, ok := o.Board.Get(id); ok {
		return &order, nil
	}
	return o.Get(ctx, id)
}

func (o *OrderService) repair(ctx context.Context, id uint) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refetchTimeout)
	defer cancel()

	stored, err := o.Store.GetOrder(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		o.Board.Remove(id)
	case err != nil:
		// Tanpa data otoritatif, hapus dari board; LoadBoard berikutnya akan mengisinya lagi.
		o.Board.Remove(id)
		utils.ErrorLogger.WithField("order", id).Errorf("re-fetch after failed update: %v", err)
	default:
		o.publish(*stored)
	}
}

// ReplaceItems rewrites an order's lines and total. Existing lines keep
// their price snapshot; new menu items are priced from the menu.
func (o *OrderService) ReplaceItems(ctx context.Context, id uint, inputs []ItemInput) (*models.Order, error) {
	if len(inputs) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"items": "at least one item is required"}}
	}
	order, err := o.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusArchived {
		return nil, ErrOrderArchived
	}

	snapshot := make(map[uint]models.OrderItem, len(order.OrderItems))
	for _, item := range order.OrderItems {
		snapshot[item.MenuItemID] = item
	}

	verr := &ValidationError{}
	items := make([]models.OrderItem, 0, len(inputs))
	for i, in := range inputs {
		if in.Quantity <= 0 {
			verr.add(fmt.Sprintf("items[%d].quantity", i), "must be positive")
			continue
		}
		if prev, ok := snapshot[in.MenuItemID]; ok {
			items = append(items, models.OrderItem{MenuItemID: in.MenuItemID, Quantity: in.Quantity, Price: prev.Price, ItemName: prev.ItemName})
			continue
		}
		menu, err := o.Store.GetMenuItem(ctx, in.MenuItemID)
		if errors.Is(err, store.ErrNotFound) {
			verr.add(fmt.Sprintf("items[%d].menu_item_id", i), "unknown menu item")
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, models.OrderItem{MenuItemID: menu.ID, Quantity: in.Quantity, Price: menu.Price, ItemName: menu.Name})
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	if err := o.Store.ReplaceOrderItems(ctx, id, items); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("replace items of order %d: %w", id, err)
	}
	updated, err := o.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	o.publish(*updated)
	utils.InfoLogger.WithField("order", id).Infof("order items replaced, total %s", updated.Total.StringFixed(2))
	return updated, nil
}

// Get returns an order by id, archived ones included.
func (o *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	order, err := o.Store.GetOrder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (o *OrderService) List(ctx context.Context, filter store.OrderFilter) ([]models.Order, error) {
	if filter.Status != "" && !models.ValidOrderStatus(filter.Status) {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown order status"}}
	}
	return o.Store.ListOrders(ctx, filter)
}

func (o *OrderService) ListForSession(ctx context.Context, sc SessionContext) ([]models.Order, error) {
	return o.Store.ListOrders(ctx, store.OrderFilter{
		IncludeArchived: true,
		TableNumber:     sc.TableID,
		SessionCode:     sc.SessionCode,
	})
}

// KitchenDisplay returns the live board.
func (o *OrderService) KitchenDisplay() []models.Order {
	return o.Board.Snapshot()
}
