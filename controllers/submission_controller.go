package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/churchquest/xpcore/middleware"
	"github.com/churchquest/xpcore/models"
	"github.com/churchquest/xpcore/services"
	"github.com/churchquest/xpcore/utils"
)

// SubmissionController exposes the submission approval workflow.
type SubmissionController struct {
	submissions *services.SubmissionService
}

// NewSubmissionController creates a new controller instance.
func NewSubmissionController(submissions *services.SubmissionService) *SubmissionController {
	return &SubmissionController{submissions: submissions}
}

type createSubmissionRequest struct {
	TaskID  string `json:"task_id" binding:"required"`
	Comment string `json:"comment" binding:"max=2000"`
}

type decisionRequest struct {
	Comment *string `json:"comment" binding:"omitempty,max=2000"`
}

// Create files a pending submission for the caller.
func (s *SubmissionController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var req createSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request body")
		return
	}

	sub, err := s.submissions.Create(ctx.Request.Context(), services.CreateSubmissionInput{
		UserID:      userID,
		TaskID:      strings.TrimSpace(req.TaskID),
		CommentUser: req.Comment,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"submission": sub})
}

// ListMine pages the caller's submissions, optionally filtered by status.
func (s *SubmissionController) ListMine(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	limit, offset := parseLimitOffset(ctx)
	q := services.ListQuery{
		Status: strings.ToUpper(strings.TrimSpace(ctx.Query("status"))),
		Limit:  limit,
		Offset: offset,
		Sort:   ctx.Query("sort"),
	}
	items, total, err := s.submissions.ListMine(ctx.Request.Context(), userID, q)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Paged(ctx, items, limit, offset, total)
}

// ListPending pages pending submissions of the admin's church.
// SUPERADMIN may pick a church with ?church_id=.
func (s *SubmissionController) ListPending(ctx *gin.Context) {
	churchID := ctx.GetString(middleware.ContextChurchIDKey)
	if ctx.GetString(middleware.ContextRoleKey) == models.RoleSuperAdmin {
		if c := strings.TrimSpace(ctx.Query("church_id")); c != "" {
			churchID = c
		}
	}
	if churchID == "" {
		respondError(ctx, services.ErrNoChurch)
		return
	}

	limit, offset := parseLimitOffset(ctx)
	q := services.ListQuery{Limit: limit, Offset: offset, Sort: ctx.Query("sort")}
	items, total, err := s.submissions.ListPending(ctx.Request.Context(), churchID, q)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Paged(ctx, items, limit, offset, total)
}

// Approve approves a pending submission, books the points reward and awards XP.
func (s *SubmissionController) Approve(ctx *gin.Context) {
	in, ok := s.decisionInput(ctx)
	if !ok {
		return
	}
	res, err := s.submissions.Approve(ctx.Request.Context(), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.CacheDelete(ctx.Request.Context(), utils.ProgressCacheKey(res.Submission.UserID))
	utils.Success(ctx, res)
}

// Reject rejects a pending submission. No XP or points are granted.
func (s *SubmissionController) Reject(ctx *gin.Context) {
	in, ok := s.decisionInput(ctx)
	if !ok {
		return
	}
	sub, err := s.submissions.Reject(ctx.Request.Context(), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"submission": sub})
}

func (s *SubmissionController) decisionInput(ctx *gin.Context) (services.DecisionInput, bool) {
	adminID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return services.DecisionInput{}, false
	}
	var req decisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request body")
		return services.DecisionInput{}, false
	}
	return services.DecisionInput{
		SubmissionID:  ctx.Param("id"),
		AdminID:       adminID,
		AdminRole:     ctx.GetString(middleware.ContextRoleKey),
		AdminChurchID: ctx.GetString(middleware.ContextChurchIDKey),
		CommentAdmin:  req.Comment,
	}, true
}
