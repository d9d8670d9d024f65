package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusArchived  OrderStatus = "archived"
)

func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady, OrderStatusCompleted, OrderStatusArchived:
		return true
	}
	return false
}

// Order tidak pernah dihapus; archived hanya menyembunyikan dari daftar default.
type Order struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	TableNumber      string          `gorm:"type:varchar(50);not null;index" json:"table_number"`
	SessionCode      *string         `gorm:"type:varchar(120);index" json:"session_code,omitempty"`
	Status           OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Total            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0.00" json:"total"`
	EstimatedMinutes *int            `json:"estimated_minutes,omitempty"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
	OrderItems       []OrderItem     `gorm:"foreignKey:OrderID" json:"order_items"`
}

// ComputeTotal menjumlahkan harga snapshot item, bukan harga menu terkini.
func ComputeTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total.Round(2)
}
