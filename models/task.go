package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task is a church-assigned activity. Category drives which XP bar grows.
type Task struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	ChurchID     string    `gorm:"size:36;index;not null" json:"church_id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Category     string    `gorm:"size:32;not null" json:"category"`
	PointsReward int       `gorm:"not null" json:"points_reward"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
