package services

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/churchquest/xpcore/models"
)

// PointsService reads and appends spendable points.
type PointsService struct {
	db *gorm.DB
}

func NewPointsService(db *gorm.DB) *PointsService {
	return &PointsService{db: db}
}

// taskRewardMeta is stored as JSON on TASK_REWARD entries.
type taskRewardMeta struct {
	SubmissionID string `json:"submissionId"`
	TaskID       string `json:"taskId"`
}

// AppendTaskReward writes the TASK_REWARD entry of an approved submission.
func (p *PointsService) AppendTaskReward(tx *gorm.DB, sub *models.Submission, amount int) error {
	meta, err := json.Marshal(taskRewardMeta{SubmissionID: sub.ID, TaskID: sub.TaskID})
	if err != nil {
		return err
	}
	return tx.Create(&models.PointsLedger{
		ChurchID: sub.ChurchID,
		UserID:   sub.UserID,
		Type:     models.PointsTaskReward,
		Amount:   amount,
		Meta:     datatypes.JSON(meta),
	}).Error
}

// Balance returns the user's point balance inside a church.
func (p *PointsService) Balance(ctx context.Context, userID, churchID string) (int, error) {
	return p.balance(p.db.WithContext(ctx), userID, churchID)
}

func (p *PointsService) balance(tx *gorm.DB, userID, churchID string) (int, error) {
	var sum int64
	err := tx.Model(&models.PointsLedger{}).
		Where("user_id = ? AND church_id = ?", userID, churchID).
		Select("COALESCE(SUM(amount),0)").
		Scan(&sum).Error
	return int(sum), err
}
