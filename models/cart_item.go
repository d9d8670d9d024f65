package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem identity is (SessionID, MenuItemID). SessionID is derived from
// table number and session code, never the table number alone.
type CartItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SessionID   string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_cart_session_item" json:"session_id"`
	MenuItemID  uint            `gorm:"not null;uniqueIndex:idx_cart_session_item" json:"menu_item_id"`
	TableNumber string          `gorm:"type:varchar(50);not null" json:"table_number"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	ItemName    string          `gorm:"type:varchar(255);not null" json:"item_name"`
	ItemImage   string          `gorm:"type:varchar(255)" json:"item_image"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

func (ci CartItem) LineTotal() decimal.Decimal {
	return ci.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}
