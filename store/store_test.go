package store_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/store"
)

// newSQLiteStore membuka SQLite in-memory terpisah untuk setiap test
func newSQLiteStore(t *testing.T) *store.GormStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	s := store.NewGormStore(db)
	require.NoError(t, s.AutoMigrate())
	return s
}

func forEachStore(t *testing.T, fn func(t *testing.T, s store.Store)) {
	t.Run("gorm", func(t *testing.T) { fn(t, newSQLiteStore(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, store.NewMemoryStore()) })
}

func TestCreateSessionDeactivatesPrior(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		first := &models.TableSession{TableID: "1", SessionCode: "1-a"}
		second := &models.TableSession{TableID: "1", SessionCode: "1-b"}
		require.NoError(t, s.CreateSession(ctx, first, true))
		require.NoError(t, s.CreateSession(ctx, second, true))

		_, err := s.GetActiveSession(ctx, "1-a")
		assert.ErrorIs(t, err, store.ErrNotFound)

		active, err := s.GetActiveSession(ctx, "1-b")
		require.NoError(t, err)
		assert.True(t, active.IsActive)

		old, err := s.GetSession(ctx, "1-a")
		require.NoError(t, err)
		assert.False(t, old.IsActive)
		assert.NotNil(t, old.EndedAt)
	})
}

func TestCreateSessionRejectsDuplicateCode(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateSession(ctx, &models.TableSession{TableID: "T-01", SessionCode: "dup"}, false))
		err := s.CreateSession(ctx, &models.TableSession{TableID: "T-01", SessionCode: "dup"}, false)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})
}

func TestDeactivateSessionsScopes(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		for _, code := range []string{"A", "B", "C"} {
			require.NoError(t, s.CreateSession(ctx, &models.TableSession{TableID: "T-01", SessionCode: code}, false))
		}
		codes, err := s.DeactivateSessions(ctx, "T-01", false, time.Now())
		require.NoError(t, err)
		assert.Len(t, codes, 3)

		codes, err = s.DeactivateSessions(ctx, "T-01", false, time.Now())
		require.NoError(t, err)
		assert.Empty(t, codes)

		// semua sudah berakhir: mengakhiri ulang tidak menyentuh baris maupun change feed
		pending, err := s.PendingChanges(ctx, 100)
		require.NoError(t, err)
		codes, err = s.DeactivateSessions(ctx, "T-01", true, time.Now())
		require.NoError(t, err)
		assert.Empty(t, codes)
		after, err := s.PendingChanges(ctx, 100)
		require.NoError(t, err)
		assert.Len(t, after, len(pending))

		require.NoError(t, s.CreateSession(ctx, &models.TableSession{TableID: "T-01", SessionCode: "D"}, false))
		codes, err = s.DeactivateSessions(ctx, "T-01", true, time.Now())
		require.NoError(t, err)
		assert.Equal(t, []string{"D"}, codes)

		active, err := s.ActiveTableIDs(ctx)
		require.NoError(t, err)
		assert.False(t, active["T-01"])
	})
}

func TestSaveCartItemUpserts(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		item := &models.CartItem{SessionID: "s1", MenuItemID: 7, TableNumber: "1", Quantity: 1,
			Price: decimal.NewFromInt(10), ItemName: "Burger"}
		require.NoError(t, s.SaveCartItem(ctx, item))

		update := &models.CartItem{SessionID: "s1", MenuItemID: 7, TableNumber: "1", Quantity: 3,
			Price: decimal.NewFromInt(10), ItemName: "Burger"}
		require.NoError(t, s.SaveCartItem(ctx, update))

		items, err := s.ListCartItems(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 3, items[0].Quantity)

		other, err := s.ListCartItems(ctx, "s2")
		require.NoError(t, err)
		assert.Empty(t, other)

		require.NoError(t, s.ClearCart(ctx, "s1"))
		items, err = s.ListCartItems(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestUpdateOrderStatusCompareAndSet(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		order := &models.Order{TableNumber: "1", Status: models.OrderStatusPending,
			OrderItems: []models.OrderItem{{MenuItemID: 1, Quantity: 2, Price: decimal.NewFromInt(10), ItemName: "Burger"}}}
		order.Total = models.ComputeTotal(order.OrderItems)
		require.NoError(t, s.CreateOrder(ctx, order))

		require.NoError(t, s.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusPreparing, time.Now()))
		err := s.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusPreparing, time.Now())
		assert.ErrorIs(t, err, store.ErrStale)

		err = s.UpdateOrderStatus(ctx, 9999, models.OrderStatusPending, models.OrderStatusPreparing, time.Now())
		assert.ErrorIs(t, err, store.ErrNotFound)

		got, err := s.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPreparing, got.Status)
		assert.True(t, decimal.NewFromInt(20).Equal(got.Total))
		assert.Len(t, got.OrderItems, 1)
	})
}

func TestListOrdersHidesArchived(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		live := &models.Order{TableNumber: "1", Status: models.OrderStatusReady}
		archived := &models.Order{TableNumber: "1", Status: models.OrderStatusArchived}
		require.NoError(t, s.CreateOrder(ctx, live))
		require.NoError(t, s.CreateOrder(ctx, archived))

		orders, err := s.ListOrders(ctx, store.OrderFilter{})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, live.ID, orders[0].ID)

		orders, err = s.ListOrders(ctx, store.OrderFilter{IncludeArchived: true})
		require.NoError(t, err)
		assert.Len(t, orders, 2)

		got, err := s.GetOrder(ctx, archived.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusArchived, got.Status)
	})
}

func TestReplaceOrderItemsRecomputesTotal(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		order := &models.Order{TableNumber: "2", Status: models.OrderStatusPreparing,
			OrderItems: []models.OrderItem{{MenuItemID: 1, Quantity: 1, Price: decimal.NewFromInt(5), ItemName: "Tea"}}}
		require.NoError(t, s.CreateOrder(ctx, order))

		items := []models.OrderItem{
			{MenuItemID: 1, Quantity: 2, Price: decimal.NewFromInt(5), ItemName: "Tea"},
			{MenuItemID: 2, Quantity: 1, Price: decimal.RequireFromString("7.50"), ItemName: "Cake"},
		}
		require.NoError(t, s.ReplaceOrderItems(ctx, order.ID, items))

		got, err := s.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Len(t, got.OrderItems, 2)
		assert.Equal(t, "17.50", got.Total.StringFixed(2))
	})
}

func TestChangeFeed(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateSession(ctx, &models.TableSession{TableID: "3", SessionCode: "3-x"}, true))

		changes, err := s.PendingChanges(ctx, 10)
		require.NoError(t, err)
		require.NotEmpty(t, changes)
		assert.Equal(t, models.EntitySession, changes[0].Entity)
		assert.Equal(t, "3-x", changes[0].RecordKey)

		ids := make([]uint, 0, len(changes))
		for _, c := range changes {
			ids = append(ids, c.ID)
		}
		require.NoError(t, s.MarkChangesProcessed(ctx, ids))

		changes, err = s.PendingChanges(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, changes)
	})
}

func TestTableLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		table := &models.Table{TableID: "T-07", Name: "Kiosk 7", Type: models.TableTypeTerminal, Status: models.TableStatusAvailable}
		require.NoError(t, s.CreateTable(ctx, table))
		assert.ErrorIs(t, s.CreateTable(ctx, &models.Table{TableID: "T-07", Name: "dup", Type: models.TableTypeRegular, Status: models.TableStatusAvailable}), store.ErrDuplicate)

		require.NoError(t, s.UpdateTableStatus(ctx, "T-07", models.TableStatusOccupied))
		got, err := s.GetTable(ctx, "T-07")
		require.NoError(t, err)
		assert.Equal(t, models.TableStatusOccupied, got.Status)

		require.NoError(t, s.DeleteTable(ctx, "T-07"))
		_, err = s.GetTable(ctx, "T-07")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, s.DeleteTable(ctx, "T-07"), store.ErrNotFound)
	})
}
