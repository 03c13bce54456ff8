package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Submission statuses.
const (
	SubmissionPending  = "PENDING"
	SubmissionApproved = "APPROVED"
	SubmissionRejected = "REJECTED"
	SubmissionCanceled = "CANCELED"
)

// Submission is a user's claim that a task was completed.
// XPAppliedAt is the one-time XP guard: once set, XP is never awarded again.
type Submission struct {
	ID                  string     `gorm:"primaryKey;size:36" json:"id"`
	ChurchID            string     `gorm:"size:36;index:idx_submission_church_status,priority:1;not null" json:"church_id"`
	UserID              string     `gorm:"size:36;index:idx_submission_user_task,priority:1;not null" json:"user_id"`
	TaskID              string     `gorm:"size:36;index:idx_submission_user_task,priority:2;not null" json:"task_id"`
	Status              string     `gorm:"size:16;index:idx_submission_church_status,priority:2;not null" json:"status"`
	CommentUser         string     `gorm:"type:text" json:"comment_user,omitempty"`
	CommentAdmin        *string    `gorm:"type:text" json:"comment_admin,omitempty"`
	DecidedAt           *time.Time `json:"decided_at"`
	DecidedByID         *string    `gorm:"size:36" json:"decided_by_id"`
	RewardPointsApplied int        `gorm:"not null;default:0" json:"reward_points_applied"`
	XPAppliedAt         *time.Time `gorm:"column:xp_applied_at" json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	Task *Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = SubmissionPending
	}
	return nil
}
