// Package store is the persistence capability used by the session, cart and
// order services. GormStore is the primary backend; MemoryStore is a local
// stand-in for development and tests. The implementation is chosen once at
// startup.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/juliosud/yummo4-sub000/models"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate key value violates unique constraint")

	// ErrUnavailable wraps every unexpected backend failure: connection
	// errors, timeouts and driver errors.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrStale is returned when a conditional update lost a race with a
	// concurrent writer.
	ErrStale = errors.New("record changed concurrently")
)

// OrderFilter narrows ListOrders. Archived orders are excluded unless
// IncludeArchived is set.
type OrderFilter struct {
	IncludeArchived bool
	TableNumber     string
	SessionCode     string
	Status          models.OrderStatus
}

type Store interface {
	Ping(ctx context.Context) error

	CreateTable(ctx context.Context, table *models.Table) error
	GetTable(ctx context.Context, tableID string) (*models.Table, error)
	ListTables(ctx context.Context) ([]models.Table, error)
	UpdateTableStatus(ctx context.Context, tableID, status string) error
	DeleteTable(ctx context.Context, tableID string) error

	// CreateSession inserts an active session. With deactivatePrior, every
	// other active session of the same table is ended in the same write.
	CreateSession(ctx context.Context, session *models.TableSession, deactivatePrior bool) error
	GetSession(ctx context.Context, code string) (*models.TableSession, error)
	GetActiveSession(ctx context.Context, code string) (*models.TableSession, error)
	ListSessions(ctx context.Context, tableID string) ([]models.TableSession, error)
	ActiveTableIDs(ctx context.Context) (map[string]bool, error)
	// DeactivateSessions marks sessions of a table inactive and returns the
	// codes it touched. allHistorical covers every row of the table,
	// otherwise only rows currently active.
	DeactivateSessions(ctx context.Context, tableID string, allHistorical bool, at time.Time) ([]string, error)
	SaveCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomer(ctx context.Context, code string) (*models.Customer, error)

	CreateMenuItem(ctx context.Context, item *models.Menu) error
	GetMenuItem(ctx context.Context, id uint) (*models.Menu, error)
	ListMenuItems(ctx context.Context, onlyAvailable bool) ([]models.Menu, error)

	ListCartItems(ctx context.Context, sessionID string) ([]models.CartItem, error)
	GetCartItem(ctx context.Context, sessionID string, menuItemID uint) (*models.CartItem, error)
	// SaveCartItem upserts on (SessionID, MenuItemID); last write wins.
	SaveCartItem(ctx context.Context, item *models.CartItem) error
	DeleteCartItem(ctx context.Context, sessionID string, menuItemID uint) error
	ClearCart(ctx context.Context, sessionIDs ...string) error

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	// UpdateOrderStatus succeeds only while the stored status still equals from.
	UpdateOrderStatus(ctx context.Context, id uint, from, to models.OrderStatus, at time.Time) error
	ReplaceOrderItems(ctx context.Context, id uint, items []models.OrderItem) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)

	PendingChanges(ctx context.Context, limit int) ([]models.DBChange, error)
	MarkChangesProcessed(ctx context.Context, ids []uint) error
}
