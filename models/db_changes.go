package models

import (
	"time"
)

const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
)

// Entity names recorded in the change feed.
const (
	EntitySession = "table_sessions"
	EntityCart    = "cart_items"
	EntityOrder   = "orders"
	EntityTable   = "tables"
)

type DBChange struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Entity     string    `gorm:"type:varchar(50);not null;index:idx_entity_action" json:"entity"`
	RecordKey  string    `gorm:"type:varchar(120);not null" json:"record_key"`
	ActionType string    `gorm:"type:varchar(10);not null;index:idx_entity_action" json:"action_type"`
	ChangedAt  time.Time `gorm:"not null" json:"changed_at"`
	Processed  bool      `gorm:"default:false;index:idx_processed" json:"processed"`
}
