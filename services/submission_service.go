package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/churchquest/xpcore/models"
	"github.com/churchquest/xpcore/utils"
)

const (
	defaultListLimit = 30
	maxListLimit     = 50
)

// CreateSubmissionInput is a user's claim for a task.
type CreateSubmissionInput struct {
	UserID      string
	TaskID      string
	CommentUser string
}

// DecisionInput identifies the admin deciding a submission.
type DecisionInput struct {
	SubmissionID  string
	AdminID       string
	AdminRole     string
	AdminChurchID string
	CommentAdmin  *string
}

// ListQuery pages submission lists. Sort is "new" (default) or "old".
type ListQuery struct {
	Status string
	Limit  int
	Offset int
	Sort   string
}

func (q ListQuery) normalized() ListQuery {
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Sort != "old" {
		q.Sort = "new"
	}
	return q
}

func (q ListQuery) order() string {
	if q.Sort == "old" {
		return "created_at ASC"
	}
	return "created_at DESC"
}

// ApprovalResult is returned by Approve.
type ApprovalResult struct {
	Submission *models.Submission `json:"submission"`
	Award      *AwardResult       `json:"xp"`
	Balance    int                `json:"balance"`
}

// SubmissionService runs the submission approval workflow.
type SubmissionService struct {
	db     *gorm.DB
	xp     *XPService
	points *PointsService
	logger *zap.Logger
	now    func() time.Time
}

func NewSubmissionService(db *gorm.DB, xpSvc *XPService, points *PointsService, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{db: db, xp: xpSvc, points: points, logger: logger, now: time.Now}
}

// Create files a pending submission. Resubmitting is allowed only after a rejection.
func (s *SubmissionService) Create(ctx context.Context, in CreateSubmissionInput) (*models.Submission, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Select("id", "church_id", "status").Where("id = ?", in.UserID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, in.UserID)
	}
	if err != nil {
		return nil, err
	}
	if user.Status == models.UserStatusBanned {
		return nil, ErrForbidden
	}
	if user.ChurchID == nil || *user.ChurchID == "" {
		return nil, ErrNoChurch
	}

	var task models.Task
	err = db.Select("id", "church_id", "is_active").Where("id = ?", in.TaskID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, in.TaskID)
	}
	if err != nil {
		return nil, err
	}
	if task.ChurchID != *user.ChurchID {
		return nil, ErrTaskDifferentChurch
	}
	if !task.IsActive {
		return nil, ErrTaskInactive
	}

	var existing models.Submission
	err = db.Select("id", "status").
		Where("user_id = ? AND task_id = ? AND status IN ?", in.UserID, in.TaskID,
			[]string{models.SubmissionPending, models.SubmissionApproved}).
		Order("created_at DESC").
		First(&existing).Error
	switch {
	case err == nil && existing.Status == models.SubmissionPending:
		return nil, ErrAlreadyPending
	case err == nil:
		return nil, ErrAlreadyApproved
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	sub := &models.Submission{
		ChurchID:    task.ChurchID,
		UserID:      in.UserID,
		TaskID:      in.TaskID,
		Status:      models.SubmissionPending,
		CommentUser: utils.Sanitize(strings.TrimSpace(in.CommentUser)),
	}
	if err := db.Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// ListMine pages a user's own submissions with their tasks.
func (s *SubmissionService) ListMine(ctx context.Context, userID string, q ListQuery) ([]models.Submission, int64, error) {
	q = q.normalized()
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if q.Status != "" {
			db = db.Where("status = ?", q.Status)
		}
		return db
	}
	return s.list(ctx, scope, q)
}

// ListPending pages the pending submissions of a church.
func (s *SubmissionService) ListPending(ctx context.Context, churchID string, q ListQuery) ([]models.Submission, int64, error) {
	q = q.normalized()
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("church_id = ? AND status = ?", churchID, models.SubmissionPending)
	}
	return s.list(ctx, scope, q)
}

func (s *SubmissionService) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB, q ListQuery) ([]models.Submission, int64, error) {
	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&models.Submission{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.Submission
	err := db.Scopes(scope).
		Preload("Task").
		Order(q.order()).
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Approve marks a pending submission approved, books the points reward and
// awards XP, all in one transaction.
func (s *SubmissionService) Approve(ctx context.Context, in DecisionInput) (*ApprovalResult, error) {
	out := &ApprovalResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.lockForDecision(tx, in)
		if err != nil {
			return err
		}

		var task models.Task
		err = tx.Select("id", "church_id", "points_reward").Where("id = ?", sub.TaskID).First(&task).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, sub.TaskID)
		}
		if err != nil {
			return err
		}
		if task.ChurchID != sub.ChurchID {
			return ErrTaskDifferentChurch
		}

		var user models.User
		err = tx.Select("id", "status").Where("id = ?", sub.UserID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrUserNotFound, sub.UserID)
		}
		if err != nil {
			return err
		}
		if user.Status != models.UserStatusActive {
			return ErrForbidden
		}

		now := s.now()
		if err := s.decide(tx, sub, in, models.SubmissionApproved, task.PointsReward, now); err != nil {
			return err
		}
		if err := s.points.AppendTaskReward(tx, sub, task.PointsReward); err != nil {
			return err
		}

		award, err := s.xp.AwardSubmission(ctx, tx, sub.ID, now)
		if err != nil {
			return err
		}
		out.Award = award

		if err := tx.Where("id = ?", sub.ID).First(sub).Error; err != nil {
			return err
		}
		out.Submission = sub

		out.Balance, err = s.points.balance(tx, sub.UserID, sub.ChurchID)
		return err
	})
	if err != nil {
		s.recordFailure(in, err)
		return nil, err
	}

	s.xp.Observe(out.Award)
	utils.SubmissionDecisions.WithLabelValues("approved").Inc()
	s.logger.Info("submission approved",
		zap.String("submission_id", in.SubmissionID),
		zap.String("admin_id", in.AdminID),
		zap.Int("reward_points", out.Submission.RewardPointsApplied),
		zap.Int("awarded_xp", out.Award.AwardedXP),
		zap.Bool("leveled_up", out.Award.LeveledUp),
	)
	return out, nil
}

// Reject marks a pending submission rejected. No points or XP are booked.
func (s *SubmissionService) Reject(ctx context.Context, in DecisionInput) (*models.Submission, error) {
	var out *models.Submission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.lockForDecision(tx, in)
		if err != nil {
			return err
		}
		if err := s.decide(tx, sub, in, models.SubmissionRejected, 0, s.now()); err != nil {
			return err
		}
		if err := tx.Where("id = ?", sub.ID).First(sub).Error; err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		s.recordFailure(in, err)
		return nil, err
	}
	utils.SubmissionDecisions.WithLabelValues("rejected").Inc()
	return out, nil
}

// lockForDecision loads a pending submission under a row lock and applies the
// church scope: ADMIN is limited to its own church, SUPERADMIN is not.
func (s *SubmissionService) lockForDecision(tx *gorm.DB, in DecisionInput) (*models.Submission, error) {
	var sub models.Submission
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", in.SubmissionID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionNotFound, in.SubmissionID)
	}
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubmissionPending {
		return nil, ErrAlreadyDecided
	}
	if in.AdminRole != models.RoleSuperAdmin {
		if in.AdminChurchID == "" {
			return nil, ErrNoChurch
		}
		if sub.ChurchID != in.AdminChurchID {
			return nil, ErrForbidden
		}
	}
	return &sub, nil
}

// decide flips the status only if it is still pending.
func (s *SubmissionService) decide(tx *gorm.DB, sub *models.Submission, in DecisionInput, status string, points int, at time.Time) error {
	updates := map[string]interface{}{
		"status":                status,
		"decided_at":            at.UTC(),
		"decided_by_id":         in.AdminID,
		"reward_points_applied": points,
	}
	if in.CommentAdmin != nil {
		updates["comment_admin"] = utils.Sanitize(strings.TrimSpace(*in.CommentAdmin))
	}
	res := tx.Model(&models.Submission{}).
		Where("id = ? AND status = ?", sub.ID, models.SubmissionPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrAlreadyDecided
	}
	return nil
}

func (s *SubmissionService) recordFailure(in DecisionInput, err error) {
	outcome := "error"
	if errors.Is(err, ErrAlreadyDecided) || errors.Is(err, ErrAlreadyAwarded) {
		outcome = "conflict"
	}
	utils.SubmissionDecisions.WithLabelValues(outcome).Inc()
	s.logger.Warn("submission decision failed",
		zap.String("submission_id", in.SubmissionID),
		zap.String("admin_id", in.AdminID),
		zap.Error(err),
	)
}
