package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/store"
)

func TestCartAddRemoveSymmetric(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "5", models.TableTypeRegular)
	burger := env.menu(t, "Burger", "10.00")
	fries := env.menu(t, "Fries", "3.50")
	sc := env.session(t, "5")

	_, err := env.app.Carts.Add(ctx, sc, fries)
	require.NoError(t, err)
	before, err := env.app.Carts.Get(ctx, sc)
	require.NoError(t, err)

	_, err = env.app.Carts.Add(ctx, sc, burger)
	require.NoError(t, err)
	after, err := env.app.Carts.Remove(ctx, sc, burger)
	require.NoError(t, err)

	assert.Equal(t, before.TotalItems, after.TotalItems)
	assert.True(t, before.TotalPrice.Equal(after.TotalPrice))
	require.Len(t, after.Items, 1)
	assert.Equal(t, fries, after.Items[0].MenuItemID)

	rows, err := env.store.ListCartItems(ctx, sc.SessionID())
	require.NoError(t, err)
	for _, row := range rows {
		assert.Positive(t, row.Quantity)
	}
}

func TestCartRemoveDecrementsThenDeletes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "5", models.TableTypeRegular)
	burger := env.menu(t, "Burger", "10.00")
	sc := env.session(t, "5")

	for i := 0; i < 3; i++ {
		_, err := env.app.Carts.Add(ctx, sc, burger)
		require.NoError(t, err)
	}

	cart, err := env.app.Carts.Remove(ctx, sc, burger)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "20.00", cart.TotalPrice.StringFixed(2))

	_, err = env.app.Carts.Remove(ctx, sc, burger)
	require.NoError(t, err)
	cart, err = env.app.Carts.Remove(ctx, sc, burger)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalItems)

	_, err = env.app.Carts.Remove(ctx, sc, burger)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartSetQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "5", models.TableTypeRegular)
	burger := env.menu(t, "Burger", "10.00")
	sc := env.session(t, "5")

	_, err := env.app.Carts.Add(ctx, sc, burger)
	require.NoError(t, err)

	cart, err := env.app.Carts.SetQuantity(ctx, sc, burger, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.TotalItems)
	assert.Equal(t, "50.00", cart.TotalPrice.StringFixed(2))

	cart, err = env.app.Carts.SetQuantity(ctx, sc, burger, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartsAreScopedBySessionCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "T-01", models.TableTypeTerminal)
	burger := env.menu(t, "Burger", "10.00")

	a, err := env.app.Sessions.RegisterTerminalVisit(ctx, "T-01", "Ana", "081234567890")
	require.NoError(t, err)
	b, err := env.app.Sessions.RegisterTerminalVisit(ctx, "T-01", "Budi", "081234567891")
	require.NoError(t, err)
	scA := NewSessionContext("T-01", a.SessionCode)
	scB := NewSessionContext("T-01", b.SessionCode)
	require.NotEqual(t, scA.SessionID(), scB.SessionID())

	_, err = env.app.Carts.Add(ctx, scA, burger)
	require.NoError(t, err)

	cartB, err := env.app.Carts.Get(ctx, scB)
	require.NoError(t, err)
	assert.Empty(t, cartB.Items)

	require.NoError(t, env.app.Carts.Clear(ctx, scB))
	cartA, err := env.app.Carts.Get(ctx, scA)
	require.NoError(t, err)
	assert.Len(t, cartA.Items, 1)
}

func TestCartRejectsUnknownAndUnavailableItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "5", models.TableTypeRegular)
	sc := env.session(t, "5")

	_, err := env.app.Carts.Add(ctx, sc, 999)
	assert.ErrorIs(t, err, ErrMenuItemNotFound)

	soldOut := &models.Menu{Name: "Soup", Available: false}
	require.NoError(t, env.store.CreateMenuItem(ctx, soldOut))
	_, err = env.app.Carts.Add(ctx, sc, soldOut.ID)
	assert.ErrorIs(t, err, ErrMenuItemUnavailable)
}

func TestCartGetFallsBackToMirror(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "5", models.TableTypeRegular)
	burger := env.menu(t, "Burger", "10.00")
	sc := env.session(t, "5")

	_, err := env.app.Carts.Add(ctx, sc, burger)
	require.NoError(t, err)

	env.store.Fail("ListCartItems", store.ErrUnavailable)
	cart, err := env.app.Carts.Get(ctx, sc)
	require.NoError(t, err)
	assert.True(t, cart.Stale)
	assert.Len(t, cart.Items, 1)

	other := NewSessionContext("5", "never-seen")
	_, err = env.app.Carts.Get(ctx, other)
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func mirrored(c *CartService, sessionID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.mirror[sessionID]
	return ok
}

func TestEndSessionForgetsMirroredCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "5", models.TableTypeRegular)
	env.table(t, "T-01", models.TableTypeTerminal)
	burger := env.menu(t, "Burger", "10.00")
	sc := env.session(t, "5")
	sess, err := env.app.Sessions.MintTerminalSession(ctx, "T-01")
	require.NoError(t, err)
	term := NewSessionContext("T-01", sess.SessionCode)

	for _, s := range []SessionContext{sc, term} {
		_, err := env.app.Carts.Add(ctx, s, burger)
		require.NoError(t, err)
		require.True(t, mirrored(env.app.Carts, s.SessionID()))
	}

	_, err = env.app.Sessions.EndSession(ctx, "5")
	require.NoError(t, err)
	assert.False(t, mirrored(env.app.Carts, sc.SessionID()))
	assert.True(t, mirrored(env.app.Carts, term.SessionID()))

	_, err = env.app.Sessions.BulkEndAllTerminalSessions(ctx)
	require.NoError(t, err)
	assert.False(t, mirrored(env.app.Carts, term.SessionID()))

	// gagal menghapus di store tetap tidak boleh menyisakan mirror
	sc = env.session(t, "5")
	_, err = env.app.Carts.Add(ctx, sc, burger)
	require.NoError(t, err)
	env.store.Fail("ClearCart", store.ErrUnavailable)
	_, err = env.app.Sessions.EndSession(ctx, "5")
	require.NoError(t, err)
	assert.False(t, mirrored(env.app.Carts, sc.SessionID()))
}
