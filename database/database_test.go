package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/juliosud/yummo4-sub000/config"
	"github.com/juliosud/yummo4-sub000/store"
)

func TestNewStoreSelectsBackend(t *testing.T) {
	mem, err := NewStore(&config.Config{StoreDriver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, mem)

	dsn := filepath.Join(t.TempDir(), "restaurant.db")
	sql, err := NewStore(&config.Config{StoreDriver: config.DriverSQLite, DSN: dsn, GinMode: "release"})
	require.NoError(t, err)
	assert.IsType(t, &store.GormStore{}, sql)
	assert.NoError(t, sql.Ping(context.Background()))

	_, err = InitDB(&config.Config{StoreDriver: config.DriverMemory})
	assert.Error(t, err)
}

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	require.NoError(t, SeedAdmin(ctx, s, "admin@resto.test", "s3cret"))
	require.NoError(t, SeedAdmin(ctx, s, "admin@resto.test", "other"))

	admin, err := s.GetUserByEmail(ctx, "admin@resto.test")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("s3cret")))

	require.NoError(t, SeedAdmin(ctx, s, "nobody@resto.test", ""))
	_, err = s.GetUserByEmail(ctx, "nobody@resto.test")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
