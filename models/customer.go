package models

import (
	"time"
)

// Customer adalah data pengunjung terminal, satu baris per kunjungan (table, session).
type Customer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TableID     string    `gorm:"type:varchar(50);not null;index" json:"table_id"`
	SessionCode string    `gorm:"type:varchar(120);not null;uniqueIndex" json:"session_code"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Phone       string    `gorm:"type:varchar(20);not null" json:"phone"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}
