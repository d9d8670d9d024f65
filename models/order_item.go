package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is a snapshot of a cart line; it holds no reference to the live menu row.
type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;index" json:"order_id"`
	MenuItemID uint            `gorm:"not null" json:"menu_item_id"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	ItemName   string          `gorm:"type:varchar(255);not null" json:"item_name"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
}

func (oi OrderItem) LineTotal() decimal.Decimal {
	return oi.Price.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}
