package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/churchquest/xpcore/models"
	"github.com/churchquest/xpcore/utils"
	"github.com/churchquest/xpcore/xp"
)

// AwardResult is what one task award changed.
type AwardResult struct {
	AwardedXP       int         `json:"awarded_xp"`
	StreakAwardedXP int         `json:"streak_awarded_xp"`
	LeveledUp       bool        `json:"leveled_up"`
	NewLevel        int         `json:"new_level"`
	NewLevelXP      int         `json:"new_level_xp"`
	NextRequiredXP  int         `json:"next_required_xp"`
	StreakDays      int         `json:"streak_days"`
	Category        xp.Category `json:"category"`
}

// CategoryBar is one XP category with its current and lifetime totals.
type CategoryBar struct {
	Category xp.Category `json:"category"`
	Current  int         `json:"current"`
	Lifetime int         `json:"lifetime"`
}

// Progress is the read model behind a user's XP screen.
type Progress struct {
	UserID              string        `json:"user_id"`
	Level               int           `json:"level"`
	LevelXP             int           `json:"level_xp"`
	NextRequiredXP      int           `json:"next_required_xp"`
	LifetimeXP          int           `json:"lifetime_xp"`
	StreakDays          int           `json:"streak_days"`
	LastTaskCompletedAt *time.Time    `json:"last_task_completed_at"`
	Categories          []CategoryBar `json:"categories"`
}

// XPService awards XP for completed tasks. Calendar days are evaluated in loc.
type XPService struct {
	db     *gorm.DB
	loc    *time.Location
	ledger LedgerStore
	logger *zap.Logger
	now    func() time.Time
}

// NewXPService creates an XPService. A nil loc means UTC.
func NewXPService(db *gorm.DB, loc *time.Location, logger *zap.Logger) *XPService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &XPService{db: db, loc: loc, logger: logger, now: time.Now}
}

// Location returns the zone used for calendar-day boundaries.
func (s *XPService) Location() *time.Location {
	return s.loc
}

// AwardTaskCompletion grants the XP for one completed task. It runs inside tx
// when given, otherwise in a new transaction. A zero at means now.
func (s *XPService) AwardTaskCompletion(ctx context.Context, tx *gorm.DB, userID, taskID string, at time.Time) (*AwardResult, error) {
	if at.IsZero() {
		at = s.now()
	}
	if err := xp.ValidateInstant(at); err != nil {
		return nil, err
	}
	if tx != nil {
		return s.award(tx.WithContext(ctx), userID, taskID, at)
	}

	var res *AwardResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = s.award(tx, userID, taskID, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Observe(res)
	return res, nil
}

// AwardSubmission awards XP for a submission exactly once. The submission's
// xp_applied_at marker is claimed with a compare-and-set in the same
// transaction; losing the race yields ErrAlreadyAwarded.
func (s *XPService) AwardSubmission(ctx context.Context, tx *gorm.DB, submissionID string, at time.Time) (*AwardResult, error) {
	if at.IsZero() {
		at = s.now()
	}
	if err := xp.ValidateInstant(at); err != nil {
		return nil, err
	}

	run := func(tx *gorm.DB) (*AwardResult, error) {
		var sub models.Submission
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "user_id", "task_id", "xp_applied_at").
			Where("id = ?", submissionID).
			First(&sub).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSubmissionNotFound, submissionID)
		}
		if err != nil {
			return nil, err
		}
		if sub.XPAppliedAt != nil {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyAwarded, submissionID)
		}

		claim := tx.Model(&models.Submission{}).
			Where("id = ? AND xp_applied_at IS NULL", submissionID).
			Update("xp_applied_at", at.UTC())
		if claim.Error != nil {
			return nil, claim.Error
		}
		if claim.RowsAffected != 1 {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyAwarded, submissionID)
		}
		return s.award(tx, sub.UserID, sub.TaskID, at)
	}

	if tx != nil {
		return run(tx.WithContext(ctx))
	}

	var res *AwardResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = run(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Observe(res)
	return res, nil
}

func (s *XPService) award(tx *gorm.DB, userID, taskID string, at time.Time) (*AwardResult, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, err
	}

	var task models.Task
	err = tx.Select("id", "category").Where("id = ?", taskID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if err != nil {
		return nil, err
	}

	baseXP, err := xp.BaseXPForDifficulty(xp.TaskDifficulty)
	if err != nil {
		return nil, err
	}
	category := xp.CategoryForTask(task.Category)

	start, end := xp.DayWindow(at, s.loc)
	dailySoFar, err := s.ledger.SumGrantedBetween(tx, userID, start, end)
	if err != nil {
		return nil, err
	}
	taskCap, err := xp.ApplyDailySoftCap(dailySoFar, baseXP)
	if err != nil {
		return nil, err
	}

	transition := xp.ClassifyStreakTransition(user.LastTaskCompletedAt, at, s.loc)
	newStreak := transition.Next(user.StreakDays)

	streakBonus := 0
	if transition == xp.StreakNextDay {
		if streakBonus, err = xp.StreakMilestoneBonus(newStreak); err != nil {
			return nil, err
		}
	}

	createdAt := at.UTC()
	entries := []*models.XPLedger{{
		UserID:    userID,
		TaskID:    &task.ID,
		XPGranted: taskCap.AwardedXP,
		XPBase:    baseXP,
		Category:  string(category),
		Source:    string(xp.SourceTask),
		CreatedAt: createdAt,
	}}

	streakAwarded := 0
	if streakBonus > 0 {
		// soft cap is cumulative over the day, so the task grant counts toward the floor
		streakCap, err := xp.ApplyDailySoftCap(dailySoFar+taskCap.AwardedXP, streakBonus)
		if err != nil {
			return nil, err
		}
		streakAwarded = streakCap.AwardedXP
		entries = append(entries, &models.XPLedger{
			UserID:    userID,
			XPGranted: streakAwarded,
			XPBase:    streakBonus,
			Category:  string(xp.CategoryOther),
			Source:    string(xp.SourceStreak),
			CreatedAt: createdAt,
		})
	}
	if err := s.ledger.Append(tx, entries...); err != nil {
		return nil, err
	}

	required, err := xp.XPRequiredForLevel(user.Level)
	if err != nil {
		return nil, err
	}

	incTotal := taskCap.AwardedXP + streakAwarded
	currentCol, lifetimeCol := categoryColumns(category)
	updates := map[string]interface{}{
		"lifetime_xp":            gorm.Expr("lifetime_xp + ?", incTotal),
		lifetimeCol:              gorm.Expr(lifetimeCol+" + ?", taskCap.AwardedXP),
		"streak_days":            newStreak,
		"last_task_completed_at": createdAt,
	}

	res := &AwardResult{
		AwardedXP:       taskCap.AwardedXP,
		StreakAwardedXP: streakAwarded,
		NewLevel:        user.Level,
		NewLevelXP:      user.LevelXP + incTotal,
		StreakDays:      newStreak,
		Category:        category,
	}

	if user.LevelXP+incTotal >= required {
		// at most one level per award; XP past the threshold is dropped
		res.LeveledUp = true
		res.NewLevel = user.Level + 1
		res.NewLevelXP = 0
		updates["level"] = res.NewLevel
		updates["level_xp"] = 0
		for _, c := range xp.Categories() {
			col, _ := categoryColumns(c)
			updates[col] = 0
		}
	} else {
		updates["level_xp"] = gorm.Expr("level_xp + ?", incTotal)
		updates[currentCol] = gorm.Expr(currentCol+" + ?", taskCap.AwardedXP)
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return nil, err
	}

	if res.NextRequiredXP, err = xp.XPRequiredForLevel(res.NewLevel); err != nil {
		return nil, err
	}

	s.logger.Info("xp awarded",
		zap.String("user_id", userID),
		zap.String("task_id", taskID),
		zap.String("category", string(category)),
		zap.Int("daily_so_far", dailySoFar),
		zap.Int("awarded_xp", res.AwardedXP),
		zap.Int("streak_awarded_xp", res.StreakAwardedXP),
		zap.String("streak", string(transition)),
		zap.Int("streak_days", newStreak),
		zap.Bool("leveled_up", res.LeveledUp),
	)
	return res, nil
}

// Observe records metrics for a committed award.
func (s *XPService) Observe(res *AwardResult) {
	if res == nil {
		return
	}
	utils.XPGranted.WithLabelValues(string(xp.SourceTask), string(res.Category)).Add(float64(res.AwardedXP))
	if res.StreakAwardedXP > 0 {
		utils.XPGranted.WithLabelValues(string(xp.SourceStreak), string(xp.CategoryOther)).Add(float64(res.StreakAwardedXP))
	}
	if res.LeveledUp {
		utils.LevelUps.Inc()
	}
}

// Progress returns the current XP state of a user.
func (s *XPService) Progress(ctx context.Context, userID string) (*Progress, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	required, err := xp.XPRequiredForLevel(user.Level)
	if err != nil {
		return nil, err
	}

	bars := make([]CategoryBar, 0, 6)
	for _, c := range xp.Categories() {
		cur, life := categoryValues(&user, c)
		bars = append(bars, CategoryBar{Category: c, Current: cur, Lifetime: life})
	}

	return &Progress{
		UserID:              user.ID,
		Level:               user.Level,
		LevelXP:             user.LevelXP,
		NextRequiredXP:      required,
		LifetimeXP:          user.LifetimeXP,
		StreakDays:          user.StreakDays,
		LastTaskCompletedAt: user.LastTaskCompletedAt,
		Categories:          bars,
	}, nil
}

// History pages the user's XP ledger, newest first.
func (s *XPService) History(ctx context.Context, userID string, limit, offset int) ([]models.XPLedger, int64, error) {
	q := ListQuery{Limit: limit, Offset: offset}.normalized()
	return s.ledger.ListByUser(s.db.WithContext(ctx), userID, q.Limit, q.Offset)
}
