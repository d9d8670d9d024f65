package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/store"
)

type stubQR struct{}

func (stubQR) Render(content string) (string, error) { return "qr:" + content, nil }

// faultyStore wraps a store and fails or hangs selected operations.
type faultyStore struct {
	store.Store

	mu    sync.Mutex
	fail  map[string]error
	block map[string]bool
}

func newFaultyStore(inner store.Store) *faultyStore {
	return &faultyStore{Store: inner, fail: map[string]error{}, block: map[string]bool{}}
}

func (f *faultyStore) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *faultyStore) Hang(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block[op] = true
}

func (f *faultyStore) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = map[string]error{}
	f.block = map[string]bool{}
}

func (f *faultyStore) check(ctx context.Context, op string) error {
	f.mu.Lock()
	err, hang := f.fail[op], f.block[op]
	f.mu.Unlock()
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *faultyStore) GetActiveSession(ctx context.Context, code string) (*models.TableSession, error) {
	if err := f.check(ctx, "GetActiveSession"); err != nil {
		return nil, err
	}
	return f.Store.GetActiveSession(ctx, code)
}

func (f *faultyStore) CreateSession(ctx context.Context, s *models.TableSession, deactivatePrior bool) error {
	if err := f.check(ctx, "CreateSession"); err != nil {
		return err
	}
	return f.Store.CreateSession(ctx, s, deactivatePrior)
}

func (f *faultyStore) SaveCustomer(ctx context.Context, c *models.Customer) error {
	if err := f.check(ctx, "SaveCustomer"); err != nil {
		return err
	}
	return f.Store.SaveCustomer(ctx, c)
}

func (f *faultyStore) ListCartItems(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	if err := f.check(ctx, "ListCartItems"); err != nil {
		return nil, err
	}
	return f.Store.ListCartItems(ctx, sessionID)
}

func (f *faultyStore) ClearCart(ctx context.Context, sessionIDs ...string) error {
	if err := f.check(ctx, "ClearCart"); err != nil {
		return err
	}
	return f.Store.ClearCart(ctx, sessionIDs...)
}

func (f *faultyStore) CreateOrder(ctx context.Context, o *models.Order) error {
	if err := f.check(ctx, "CreateOrder"); err != nil {
		return err
	}
	return f.Store.CreateOrder(ctx, o)
}

func (f *faultyStore) UpdateOrderStatus(ctx context.Context, id uint, from, to models.OrderStatus, at time.Time) error {
	if err := f.check(ctx, "UpdateOrderStatus"); err != nil {
		return err
	}
	return f.Store.UpdateOrderStatus(ctx, id, from, to, at)
}

type testEnv struct {
	app       *App
	store     *faultyStore
	broadcast []models.Order
	mu        sync.Mutex
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{store: newFaultyStore(store.NewMemoryStore())}
	env.app = NewApp(env.store, Options{
		PublicOrigin: "https://resto.test",
		QR:           stubQR{},
		Broadcast: func(o models.Order) {
			env.mu.Lock()
			env.broadcast = append(env.broadcast, o)
			env.mu.Unlock()
		},
	})
	return env
}

func (e *testEnv) broadcasts() []models.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.Order(nil), e.broadcast...)
}

func (e *testEnv) table(t *testing.T, id string, typ models.TableType) {
	t.Helper()
	_, err := e.app.Sessions.CreateTable(context.Background(), TableInput{TableID: id, Type: typ, Seats: 4})
	require.NoError(t, err)
}

func (e *testEnv) menu(t *testing.T, name string, price string) uint {
	t.Helper()
	item := &models.Menu{Name: name, Price: decimal.RequireFromString(price), Available: true}
	require.NoError(t, e.store.CreateMenuItem(context.Background(), item))
	return item.ID
}

// session starts a regular table session and returns its context.
func (e *testEnv) session(t *testing.T, tableID string) SessionContext {
	t.Helper()
	res, err := e.app.Sessions.StartSession(context.Background(), tableID)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res.SessionCode, tableID+"-"))
	return NewSessionContext(tableID, res.SessionCode)
}
