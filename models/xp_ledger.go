package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// XPLedger is an append-only record of one XP grant. TaskID is nil for streak
// bonuses. Rows are never updated or deleted.
type XPLedger struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;not null;index:idx_xp_ledger_user_created,priority:1" json:"user_id"`
	TaskID    *string   `gorm:"size:36;index" json:"task_id"`
	XPGranted int       `gorm:"column:xp_granted;not null" json:"xp_granted"`
	XPBase    int       `gorm:"column:xp_base;not null" json:"xp_base"`
	Category  string    `gorm:"size:16;not null" json:"category"`
	Source    string    `gorm:"size:16;not null" json:"source"`
	CreatedAt time.Time `gorm:"not null;index:idx_xp_ledger_user_created,priority:2" json:"created_at"`
}

func (XPLedger) TableName() string {
	return "xp_ledger"
}

func (e *XPLedger) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
