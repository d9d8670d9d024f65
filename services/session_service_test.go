package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/store"
)

func TestStartSessionRegularTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "5", models.TableTypeRegular)

	res, err := env.app.Sessions.StartSession(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, "https://resto.test/menu?table=5&session="+url.QueryEscape(res.SessionCode), res.MenuURL)
	assert.Equal(t, "qr:"+res.MenuURL, res.QRImage)
	assert.True(t, env.app.Sessions.CheckActive(ctx, res.SessionCode))
	assert.True(t, env.app.Sessions.CheckActiveForTable(ctx, "5", res.SessionCode))
	assert.False(t, env.app.Sessions.CheckActiveForTable(ctx, "6", res.SessionCode))

	table, ok := env.app.Registry.Get("5")
	require.True(t, ok)
	assert.True(t, table.SessionActive)

	stored, err := env.store.GetSession(ctx, res.SessionCode)
	require.NoError(t, err)
	assert.Equal(t, res.QRImage, stored.QRCodeData)
}

func TestStartSessionReplacesPriorCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "5", models.TableTypeRegular)

	first, err := env.app.Sessions.StartSession(ctx, "5")
	require.NoError(t, err)
	second, err := env.app.Sessions.StartSession(ctx, "5")
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionCode, second.SessionCode)
	assert.False(t, env.app.Sessions.CheckActive(ctx, first.SessionCode))
	assert.True(t, env.app.Sessions.CheckActive(ctx, second.SessionCode))
}

func TestStartSessionUnknownTable(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.app.Sessions.StartSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestStartSessionStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "5", models.TableTypeRegular)
	env.store.Fail("CreateSession", store.ErrUnavailable)

	_, err := env.app.Sessions.StartSession(ctx, "5")
	assert.ErrorIs(t, err, store.ErrUnavailable)

	table, _ := env.app.Registry.Get("5")
	assert.False(t, table.SessionActive)
}

func TestStartSessionRetriesDuplicateCodes(t *testing.T) {
	env := newTestEnv(t)
	env.table(t, "5", models.TableTypeRegular)
	env.store.Fail("CreateSession", store.ErrDuplicate)

	_, err := env.app.Sessions.StartSession(context.Background(), "5")
	assert.ErrorIs(t, err, ErrSessionCodeExhausted)
}

func TestStartSessionTerminalReturnsEntryURL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "T-01", models.TableTypeTerminal)

	res, err := env.app.Sessions.StartSession(ctx, "T-01")
	require.NoError(t, err)
	assert.Empty(t, res.SessionCode)
	assert.Equal(t, "https://resto.test/term/T-01", res.MenuURL)

	sessions, err := env.app.Sessions.SessionHistory(ctx, "T-01")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestEndSessionRevokesAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "5", models.TableTypeRegular)
	sc := env.session(t, "5")

	n, err := env.app.Sessions.EndSession(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, env.app.Sessions.CheckActive(ctx, sc.SessionCode))

	stored, err := env.store.GetSession(ctx, sc.SessionCode)
	require.NoError(t, err)
	assert.NotNil(t, stored.EndedAt)

	// mengakhiri lagi tidak mengubah apa pun
	n, err = env.app.Sessions.EndSession(ctx, "5")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEndSessionPurgesCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "5", models.TableTypeRegular)
	burger := env.menu(t, "Burger", "10.00")
	sc := env.session(t, "5")

	_, err := env.app.Carts.Add(ctx, sc, burger)
	require.NoError(t, err)

	_, err = env.app.Sessions.EndSession(ctx, "5")
	require.NoError(t, err)

	items, err := env.store.ListCartItems(ctx, sc.SessionID())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestEndSessionCartPurgeFailureStillEnds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "5", models.TableTypeRegular)
	sc := env.session(t, "5")
	env.store.Fail("ClearCart", store.ErrUnavailable)

	n, err := env.app.Sessions.EndSession(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, env.app.Sessions.CheckActive(ctx, sc.SessionCode))
}

func TestTerminalVisitsGetDistinctCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "T-01", models.TableTypeTerminal)

	a, err := env.app.Sessions.RegisterTerminalVisit(ctx, "T-01", "Ana", "0812-3456-7890")
	require.NoError(t, err)
	b, err := env.app.Sessions.RegisterTerminalVisit(ctx, "T-01", "Budi", "+62 812 3456 7891")
	require.NoError(t, err)

	assert.NotEqual(t, a.SessionCode, b.SessionCode)
	assert.Equal(t, "081234567890", a.Phone)
	assert.Equal(t, "https://resto.test/menu?table=T-01&session="+url.QueryEscape(a.SessionCode), a.RedirectURL)
	assert.True(t, env.app.Sessions.CheckActive(ctx, a.SessionCode))
	assert.True(t, env.app.Sessions.CheckActive(ctx, b.SessionCode))

	customer, err := env.store.GetCustomer(ctx, b.SessionCode)
	require.NoError(t, err)
	assert.Equal(t, "Budi", customer.Name)
}

func TestRegisterTerminalVisitValidation(t *testing.T) {
	env := newTestEnv(t)
	env.table(t, "T-01", models.TableTypeTerminal)

	_, err := env.app.Sessions.RegisterTerminalVisit(context.Background(), "T-01", "  ", "12ab")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "phone")

	sessions, err := env.app.Sessions.SessionHistory(context.Background(), "T-01")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRegisterTerminalVisitCustomerSaveFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "T-01", models.TableTypeTerminal)
	env.store.Fail("SaveCustomer", store.ErrUnavailable)

	visit, err := env.app.Sessions.RegisterTerminalVisit(ctx, "T-01", "Ana", "081234567890")
	require.NoError(t, err)
	assert.True(t, env.app.Sessions.CheckActive(ctx, visit.SessionCode))
}

func TestMintTerminalSessionRejectsRegularTable(t *testing.T) {
	env := newTestEnv(t)
	env.table(t, "5", models.TableTypeRegular)
	_, err := env.app.Sessions.MintTerminalSession(context.Background(), "5")
	assert.ErrorIs(t, err, ErrNotTerminal)
}

func TestEndSessionScopes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "T-01", models.TableTypeTerminal)
	env.table(t, "5", models.TableTypeRegular)

	var codes []string
	for i := 0; i < 3; i++ {
		s, err := env.app.Sessions.MintTerminalSession(ctx, "T-01")
		require.NoError(t, err)
		codes = append(codes, s.SessionCode)
	}
	n, err := env.app.Sessions.EndSession(ctx, "T-01")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for _, code := range codes {
		assert.False(t, env.app.Sessions.CheckActive(ctx, code))
	}

	// terminal yang sudah berakhir: no-op, tanpa change feed baru
	before, err := env.store.PendingChanges(ctx, 1000)
	require.NoError(t, err)
	n, err = env.app.Sessions.EndSession(ctx, "T-01")
	require.NoError(t, err)
	assert.Zero(t, n)
	after, err := env.store.PendingChanges(ctx, 1000)
	require.NoError(t, err)
	assert.Len(t, after, len(before))

	first := env.session(t, "5")
	second := env.session(t, "5")
	n, err = env.app.Sessions.EndSession(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the active code of a regular table is ended")
	assert.False(t, env.app.Sessions.CheckActive(ctx, first.SessionCode))
	assert.False(t, env.app.Sessions.CheckActive(ctx, second.SessionCode))
}

func TestBulkEndTerminalScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "T-01", models.TableTypeTerminal)
	env.table(t, "T-02", models.TableTypeTerminal)
	env.table(t, "5", models.TableTypeRegular)
	regular := env.session(t, "5")

	a, err := env.app.Sessions.RegisterTerminalVisit(ctx, "T-01", "Ana", "081234567890")
	require.NoError(t, err)

	ended, err := env.app.Sessions.BulkEndAllTerminalSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ended)
	assert.False(t, env.app.Sessions.CheckActive(ctx, a.SessionCode))
	assert.True(t, env.app.Sessions.CheckActive(ctx, regular.SessionCode))

	b, err := env.app.Sessions.RegisterTerminalVisit(ctx, "T-01", "Budi", "081234567891")
	require.NoError(t, err)
	assert.NotEqual(t, a.SessionCode, b.SessionCode)
	assert.True(t, env.app.Sessions.CheckActive(ctx, b.SessionCode))

	_, err = env.app.Sessions.EndSession(ctx, "T-01")
	require.NoError(t, err)
	assert.False(t, env.app.Sessions.CheckActive(ctx, b.SessionCode))

	ended, err = env.app.Sessions.BulkEndAllTerminalSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, ended)
}

func TestCheckActiveFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "5", models.TableTypeRegular)
	sc := env.session(t, "5")

	assert.False(t, env.app.Sessions.CheckActive(ctx, ""))
	assert.False(t, env.app.Sessions.CheckActive(ctx, "unknown-code"))

	env.store.Fail("GetActiveSession", store.ErrUnavailable)
	assert.False(t, env.app.Sessions.CheckActive(ctx, sc.SessionCode))

	env.store.Heal()
	env.store.Hang("GetActiveSession")
	env.app.Sessions.CheckTimeout = 20 * time.Millisecond
	assert.False(t, env.app.Sessions.CheckActive(ctx, sc.SessionCode))

	env.store.Heal()
	assert.True(t, env.app.Sessions.CheckActive(ctx, sc.SessionCode))
}

func TestDeleteTableRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "5", models.TableTypeRegular)
	sc := env.session(t, "5")

	err := env.app.Sessions.DeleteTable(ctx, "5", false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.True(t, env.app.Sessions.CheckActive(ctx, sc.SessionCode))

	require.NoError(t, env.app.Sessions.DeleteTable(ctx, "5", true))
	assert.False(t, env.app.Sessions.CheckActive(ctx, sc.SessionCode))
	_, ok := env.app.Registry.Get("5")
	assert.False(t, ok)

	assert.ErrorIs(t, env.app.Sessions.DeleteTable(ctx, "5", true), ErrTableNotFound)
}

func TestCreateTableValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.app.Sessions.CreateTable(ctx, TableInput{TableID: "bad id!", Type: "booth"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "table_id")
	assert.Contains(t, verr.Fields, "type")

	table, err := env.app.Sessions.CreateTable(ctx, TableInput{TableID: "T-09", Type: models.TableTypeTerminal, Seats: 6})
	require.NoError(t, err)
	assert.Zero(t, table.Seats)
	assert.Equal(t, models.TableStatusAvailable, table.Status)
	assert.True(t, strings.HasPrefix(table.Name, "Table"))

	_, err = env.app.Sessions.CreateTable(ctx, TableInput{TableID: "T-09"})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestListTablesDerivesSessionActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, "1", models.TableTypeRegular)
	env.table(t, "2", models.TableTypeRegular)
	env.session(t, "2")

	tables, err := env.app.Sessions.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.False(t, tables[0].SessionActive)
	assert.True(t, tables[1].SessionActive)

	updated, err := env.app.Sessions.UpdateTableStatus(ctx, "2", models.TableStatusOccupied)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, updated.Status)
	assert.True(t, updated.SessionActive)

	_, err = env.app.Sessions.UpdateTableStatus(ctx, "2", "dirty")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}
