package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles.
const (
	RoleUser       = "USER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPERADMIN"
)

// User statuses.
const (
	UserStatusActive = "ACTIVE"
	UserStatusBanned = "BANNED"
)

// User is a community member. The XP block is owned by the award service:
// current category bars reset on level-up, lifetime counters never do.
type User struct {
	ID        string  `gorm:"primaryKey;size:36" json:"id"`
	FirstName string  `gorm:"size:64" json:"first_name"`
	LastName  string  `gorm:"size:64" json:"last_name"`
	Email     string  `gorm:"size:255;uniqueIndex" json:"email"`
	Role      string  `gorm:"size:16;not null;default:'USER'" json:"role"`
	Status    string  `gorm:"size:16;not null;default:'ACTIVE'" json:"status"`
	ChurchID  *string `gorm:"size:36;index" json:"church_id"`

	Level   int `gorm:"column:level;not null;default:1" json:"level"`
	LevelXP int `gorm:"column:level_xp;not null;default:0" json:"level_xp"`

	XPSpiritual  int `gorm:"column:xp_spiritual;not null;default:0" json:"xp_spiritual"`
	XPService    int `gorm:"column:xp_service;not null;default:0" json:"xp_service"`
	XPCommunity  int `gorm:"column:xp_community;not null;default:0" json:"xp_community"`
	XPCreativity int `gorm:"column:xp_creativity;not null;default:0" json:"xp_creativity"`
	XPReflection int `gorm:"column:xp_reflection;not null;default:0" json:"xp_reflection"`
	XPOther      int `gorm:"column:xp_other;not null;default:0" json:"xp_other"`

	LifetimeXP           int `gorm:"column:lifetime_xp;not null;default:0" json:"lifetime_xp"`
	LifetimeXPSpiritual  int `gorm:"column:lifetime_xp_spiritual;not null;default:0" json:"lifetime_xp_spiritual"`
	LifetimeXPService    int `gorm:"column:lifetime_xp_service;not null;default:0" json:"lifetime_xp_service"`
	LifetimeXPCommunity  int `gorm:"column:lifetime_xp_community;not null;default:0" json:"lifetime_xp_community"`
	LifetimeXPCreativity int `gorm:"column:lifetime_xp_creativity;not null;default:0" json:"lifetime_xp_creativity"`
	LifetimeXPReflection int `gorm:"column:lifetime_xp_reflection;not null;default:0" json:"lifetime_xp_reflection"`
	LifetimeXPOther      int `gorm:"column:lifetime_xp_other;not null;default:0" json:"lifetime_xp_other"`

	StreakDays          int        `gorm:"column:streak_days;not null;default:0" json:"streak_days"`
	LastTaskCompletedAt *time.Time `gorm:"column:last_task_completed_at" json:"last_task_completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id and timestamps when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}
