package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/churchquest/xpcore/models"
	"github.com/churchquest/xpcore/services/testutil"
)

func newSubmissionService(db *gorm.DB) *SubmissionService {
	svc := NewSubmissionService(db, newXPService(db), NewPointsService(db), zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func adminDecision(f *testutil.Fixture) DecisionInput {
	return DecisionInput{
		SubmissionID:  f.Submission.ID,
		AdminID:       f.Admin.ID,
		AdminRole:     f.Admin.Role,
		AdminChurchID: f.Church.ID,
	}
}

func reloadSubmission(t *testing.T, db *gorm.DB, id string) models.Submission {
	t.Helper()
	var s models.Submission
	require.NoError(t, db.Where("id = ?", id).First(&s).Error)
	return s
}

func TestApproveAwardsPointsAndXP(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.Seed(t, db, "SPIRITUAL")
	svc := newSubmissionService(db)

	in := adminDecision(f)
	comment := "  well <b>done</b><script>alert(1)</script> "
	in.CommentAdmin = &comment

	res, err := svc.Approve(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionApproved, res.Submission.Status)
	require.Equal(t, 10, res.Submission.RewardPointsApplied)
	require.NotNil(t, res.Submission.DecidedAt)
	require.Equal(t, f.Admin.ID, *res.Submission.DecidedByID)
	require.Equal(t, "well <b>done</b>", *res.Submission.CommentAdmin)
	require.Equal(t, 10, res.Balance)
	require.Equal(t, 15, res.Award.AwardedXP)

	sub := reloadSubmission(t, db, f.Submission.ID)
	require.NotNil(t, sub.XPAppliedAt)

	u := reloadUser(t, db, f.User.ID)
	require.Equal(t, 15, u.LevelXP)
	require.Equal(t, 15, u.XPSpiritual)

	var entry models.PointsLedger
	require.NoError(t, db.Where("user_id = ?", f.User.ID).First(&entry).Error)
	require.Equal(t, models.PointsTaskReward, entry.Type)
	require.Equal(t, 10, entry.Amount)
	var meta map[string]string
	require.NoError(t, json.Unmarshal(entry.Meta, &meta))
	require.Equal(t, f.Submission.ID, meta["submissionId"])
	require.Equal(t, f.Task.ID, meta["taskId"])
}

func TestApproveTwiceConflicts(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.Seed(t, db, "SPIRITUAL")
	svc := newSubmissionService(db)
	ctx := context.Background()

	_, err := svc.Approve(ctx, adminDecision(f))
	require.NoError(t, err)
	afterFirst := reloadUser(t, db, f.User.ID)
	ledgerAfterFirst := len(ledgerRows(t, db, f.User.ID))

	_, err = svc.Approve(ctx, adminDecision(f))
	require.ErrorIs(t, err, ErrAlreadyDecided)

	afterSecond := reloadUser(t, db, f.User.ID)
	require.Equal(t, afterFirst.LevelXP, afterSecond.LevelXP)
	require.Equal(t, ledgerAfterFirst, len(ledgerRows(t, db, f.User.ID)))

	balance, err := NewPointsService(db).Balance(ctx, f.User.ID, f.Church.ID)
	require.NoError(t, err)
	require.Equal(t, 10, balance)
}

func TestConcurrentApprovalsAwardOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.Seed(t, db, "SPIRITUAL")
	svc := newSubmissionService(db)

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Approve(context.Background(), adminDecision(f))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrAlreadyDecided)
	}
	require.Equal(t, 1, succeeded)
	require.Len(t, ledgerRows(t, db, f.User.ID), 1)
	require.Equal(t, 15, reloadUser(t, db, f.User.ID).LifetimeXP)
}

func TestApproveRollsBackWhenAwardFails(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.Seed(t, db, "SPIRITUAL")
	svc := newSubmissionService(db)

	setUser(t, db, f.User.ID, map[string]interface{}{"level": 0})

	_, err := svc.Approve(context.Background(), adminDecision(f))
	require.Error(t, err)

	sub := reloadSubmission(t, db, f.Submission.ID)
	require.Equal(t, models.SubmissionPending, sub.Status)
	require.Nil(t, sub.XPAppliedAt)

	var points int64
	require.NoError(t, db.Model(&models.PointsLedger{}).Count(&points).Error)
	require.Zero(t, points)
	require.Empty(t, ledgerRows(t, db, f.User.ID))
}

func TestApproveChurchScope(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.Seed(t, db, "SPIRITUAL")
	svc := newSubmissionService(db)
	ctx := context.Background()

	in := adminDecision(f)
	in.AdminChurchID = "another-church"
	_, err := svc.Approve(ctx, in)
	require.ErrorIs(t, err, ErrForbidden)

	in.AdminChurchID = ""
	_, err = svc.Approve(ctx, in)
	require.ErrorIs(t, err, ErrNoChurch)

	in.AdminRole = models.RoleSuperAdmin
	in.AdminChurchID = "another-church"
	res, err := svc.Approve(ctx, in)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionApproved, res.Submission.Status)
}

func TestApproveBannedUserForbidden(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.Seed(t, db, "SPIRITUAL")
	svc := newSubmissionService(db)

	setUser(t, db, f.User.ID, map[string]interface{}{"status": models.UserStatusBanned})

	_, err := svc.Approve(context.Background(), adminDecision(f))
	require.ErrorIs(t, err, ErrForbidden)
	require.Equal(t, models.SubmissionPending, reloadSubmission(t, db, f.Submission.ID).Status)
}

func TestApproveMissingSubmission(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.Seed(t, db, "SPIRITUAL")
	svc := newSubmissionService(db)

	in := adminDecision(f)
	in.SubmissionID = "missing"
	_, err := svc.Approve(context.Background(), in)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestRejectThenResubmit(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.Seed(t, db, "SPIRITUAL")
	svc := newSubmissionService(db)
	ctx := context.Background()

	rejected, err := svc.Reject(ctx, adminDecision(f))
	require.NoError(t, err)
	require.Equal(t, models.SubmissionRejected, rejected.Status)
	require.Zero(t, rejected.RewardPointsApplied)
	require.Nil(t, rejected.XPAppliedAt)
	require.Empty(t, ledgerRows(t, db, f.User.ID))

	_, err = svc.Reject(ctx, adminDecision(f))
	require.ErrorIs(t, err, ErrAlreadyDecided)

	again, err := svc.Create(ctx, CreateSubmissionInput{UserID: f.User.ID, TaskID: f.Task.ID, CommentUser: "second try"})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionPending, again.Status)
	require.Equal(t, f.Church.ID, again.ChurchID)

	_, err = svc.Create(ctx, CreateSubmissionInput{UserID: f.User.ID, TaskID: f.Task.ID})
	require.ErrorIs(t, err, ErrAlreadyPending)
}

func TestCreateSubmissionGuards(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.Seed(t, db, "SPIRITUAL")
	svc := newSubmissionService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateSubmissionInput{UserID: "missing", TaskID: f.Task.ID})
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Create(ctx, CreateSubmissionInput{UserID: f.User.ID, TaskID: "missing"})
	require.ErrorIs(t, err, ErrTaskNotFound)

	_, err = svc.Create(ctx, CreateSubmissionInput{UserID: f.User.ID, TaskID: f.Task.ID})
	require.ErrorIs(t, err, ErrAlreadyPending)

	_, err = svc.Approve(ctx, adminDecision(f))
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateSubmissionInput{UserID: f.User.ID, TaskID: f.Task.ID})
	require.ErrorIs(t, err, ErrAlreadyApproved)

	other := models.Task{ChurchID: "other-church", Title: "Elsewhere", Category: "SERVICE", PointsReward: 5, IsActive: true}
	require.NoError(t, db.Create(&other).Error)
	_, err = svc.Create(ctx, CreateSubmissionInput{UserID: f.User.ID, TaskID: other.ID})
	require.ErrorIs(t, err, ErrTaskDifferentChurch)

	inactive := models.Task{ChurchID: f.Church.ID, Title: "Archived", Category: "SERVICE", PointsReward: 5}
	require.NoError(t, db.Create(&inactive).Error)
	_, err = svc.Create(ctx, CreateSubmissionInput{UserID: f.User.ID, TaskID: inactive.ID})
	require.ErrorIs(t, err, ErrTaskInactive)

	setUser(t, db, f.User.ID, map[string]interface{}{"status": models.UserStatusBanned})
	_, err = svc.Create(ctx, CreateSubmissionInput{UserID: f.User.ID, TaskID: inactive.ID})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestListMineAndPending(t *testing.T) {
	db := testutil.NewTestDB(t)
	f := testutil.Seed(t, db, "SPIRITUAL")
	svc := newSubmissionService(db)
	ctx := context.Background()

	second := models.Task{ChurchID: f.Church.ID, Title: "Serve lunch", Category: "SERVICE", PointsReward: 20, IsActive: true}
	require.NoError(t, db.Create(&second).Error)
	_, err := svc.Create(ctx, CreateSubmissionInput{UserID: f.User.ID, TaskID: second.ID})
	require.NoError(t, err)

	pending, total, err := svc.ListPending(ctx, f.Church.ID, ListQuery{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, pending, 2)
	require.NotNil(t, pending[0].Task)

	_, err = svc.Approve(ctx, adminDecision(f))
	require.NoError(t, err)

	approved, total, err := svc.ListMine(ctx, f.User.ID, ListQuery{Status: models.SubmissionApproved})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, f.Submission.ID, approved[0].ID)

	page, total, err := svc.ListMine(ctx, f.User.ID, ListQuery{Limit: 1, Sort: "old"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	require.Equal(t, f.Submission.ID, page[0].ID)

	pending, total, err = svc.ListPending(ctx, f.Church.ID, ListQuery{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, second.ID, pending[0].TaskID)
}
