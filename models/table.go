package models

import "time"

type TableType string

const (
	TableTypeRegular  TableType = "regular"
	TableTypeTerminal TableType = "terminal"
)

// Status meja hanya informatif, tidak dipakai untuk validasi sesi.
const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
	TableStatusReserved  = "reserved"
)

type Table struct {
	TableID   string    `gorm:"primaryKey;type:varchar(50)" json:"table_id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Seats     int       `gorm:"not null;default:0" json:"seats"`
	Type      TableType `gorm:"type:varchar(20);not null;default:'regular'" json:"type"`
	Status    string    `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	// SessionActive is recomputed from table_sessions, never stored.
	SessionActive bool `gorm:"-" json:"session_active"`
}

func (t Table) IsTerminal() bool {
	return t.Type == TableTypeTerminal
}

func ValidTableType(t TableType) bool {
	return t == TableTypeRegular || t == TableTypeTerminal
}

func ValidTableStatus(s string) bool {
	switch s {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved:
		return true
	}
	return false
}
