package models

import "time"

type TableSession struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	TableID     string     `gorm:"type:varchar(50);not null;index" json:"table_id"`
	SessionCode string     `gorm:"type:varchar(120);not null;uniqueIndex" json:"session_code"`
	IsActive    bool       `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	QRCodeData  string     `gorm:"type:text" json:"qr_code_data,omitempty"`
	MenuURL     string     `gorm:"type:varchar(500)" json:"menu_url,omitempty"`
}
