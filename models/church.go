package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Church groups users, tasks and submissions.
type Church struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	City      string    `gorm:"size:128" json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Church) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
