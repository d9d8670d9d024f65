package services

import (
	"context"
	"time"

	"github.com/juliosud/yummo4-sub000/kds"
	"github.com/juliosud/yummo4-sub000/models"
	"github.com/juliosud/yummo4-sub000/store"
)

// Options configures NewApp.
type Options struct {
	PublicOrigin string
	PollInterval time.Duration
	CheckTimeout time.Duration
	QR           QRRenderer
	// Broadcast receives every order the kitchen board shows. Nil sends to
	// the kds hub.
	Broadcast func(models.Order)
}

// App wires the services around one store.
type App struct {
	Store    store.Store
	Registry *TableRegistry
	Sessions *SessionService
	Guard    *Guard
	Carts    *CartService
	Orders   *OrderService
}

func NewApp(s store.Store, opts Options) *App {
	if opts.QR == nil {
		opts.QR = NewPNGQRRenderer()
	}
	if opts.Broadcast == nil {
		opts.Broadcast = kds.BroadcastOrderUpdate
	}

	registry := NewTableRegistry(s)
	sessions := NewSessionService(s, registry, opts.QR, opts.PublicOrigin)
	if opts.CheckTimeout > 0 {
		sessions.CheckTimeout = opts.CheckTimeout
	}
	carts := NewCartService(s)
	sessions.Carts = carts
	orders := NewOrderService(s, carts, NewOrderBoard())
	orders.OnChange = opts.Broadcast

	guard := NewGuard(sessions, opts.PollInterval, opts.CheckTimeout)
	guard.RescanURL = sessions.RescanURL

	return &App{
		Store:    s,
		Registry: registry,
		Sessions: sessions,
		Guard:    guard,
		Carts:    carts,
		Orders:   orders,
	}
}

// Warm loads the table registry and the kitchen board.
func (a *App) Warm(ctx context.Context) error {
	if err := a.Registry.Sync(ctx); err != nil {
		return err
	}
	return a.Orders.LoadBoard(ctx)
}
