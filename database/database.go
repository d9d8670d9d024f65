// Package database opens the configured backend and prepares the store.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/juliosud/yummo4-sub000/config"
	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/store"
	"github.com/juliosud/yummo4-sub000/utils"
)

// InitDB opens gorm on the configured SQL driver.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("driver %q is not a SQL backend", cfg.StoreDriver)
	}

	logLevel := logger.Warn
	if cfg.GinMode == "debug" {
		logLevel = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.StoreDriver == config.DriverSQLite {
		// SQLite hanya mengizinkan satu writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	utils.InfoLogger.Printf("Connected to %s database", cfg.StoreDriver)
	return db, nil
}

// NewStore returns the store selected by STORE_DRIVER. SQL backends are
// migrated before use.
func NewStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreDriver == config.DriverMemory {
		utils.InfoLogger.Warn("Using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	db, err := InitDB(cfg)
	if err != nil {
		return nil, err
	}
	s := store.NewGormStore(db)
	if err := s.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return s, nil
}

// SeedAdmin creates the admin account when it does not exist yet.
func SeedAdmin(ctx context.Context, s store.Store, email, password string) error {
	if email == "" || password == "" {
		utils.InfoLogger.Warn("ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	_, err := s.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		Name:     "Administrator",
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := s.CreateUser(ctx, admin); err != nil && !errors.Is(err, store.ErrDuplicate) {
		return err
	}
	utils.InfoLogger.WithField("email", email).Info("Admin account seeded")
	return nil
}
