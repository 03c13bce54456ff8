package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Points ledger entry types.
const (
	PointsTaskReward = "TASK_REWARD"
	PointsPurchase   = "PURCHASE"
	PointsAdjustment = "ADJUSTMENT"
)

// PointsLedger stores spendable point movements. Balance is the sum of Amount.
type PointsLedger struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	ChurchID  string         `gorm:"size:36;not null;index:idx_points_user_church,priority:2" json:"church_id"`
	UserID    string         `gorm:"size:36;not null;index:idx_points_user_church,priority:1" json:"user_id"`
	Type      string         `gorm:"size:32;not null" json:"type"`
	Amount    int            `gorm:"not null" json:"amount"`
	Meta      datatypes.JSON `json:"meta"`
	CreatedAt time.Time      `json:"created_at"`
}

func (PointsLedger) TableName() string {
	return "points_ledger"
}

func (p *PointsLedger) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
