package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/churchquest/xpcore/services"
	"github.com/churchquest/xpcore/utils"
	"github.com/churchquest/xpcore/xp"
)

type errorMapping struct {
	err     error
	status  int
	code    int
	message string
}

var errorMappings = []errorMapping{
	{services.ErrUserNotFound, http.StatusNotFound, 40401, "user not found"},
	{services.ErrTaskNotFound, http.StatusNotFound, 40402, "task not found"},
	{services.ErrSubmissionNotFound, http.StatusNotFound, 40403, "submission not found"},
	{services.ErrAlreadyAwarded, http.StatusConflict, 40901, "ALREADY_AWARDED"},
	{services.ErrAlreadyDecided, http.StatusConflict, 40902, "ALREADY_DECIDED"},
	{services.ErrAlreadyPending, http.StatusConflict, 40903, "ALREADY_PENDING"},
	{services.ErrAlreadyApproved, http.StatusConflict, 40904, "ALREADY_APPROVED"},
	{services.ErrForbidden, http.StatusForbidden, 40301, "forbidden"},
	{services.ErrTaskDifferentChurch, http.StatusForbidden, 40302, "task belongs to a different church"},
	{services.ErrNoChurch, http.StatusBadRequest, 40001, "no church selected"},
	{services.ErrTaskInactive, http.StatusBadRequest, 40002, "task is not active"},
	// rule engine contract violations are server bugs
	{xp.ErrUnknownDifficulty, http.StatusInternalServerError, 50001, "xp rule violation"},
	{xp.ErrInvalidLevel, http.StatusInternalServerError, 50001, "xp rule violation"},
	{xp.ErrInvalidAmount, http.StatusInternalServerError, 50001, "xp rule violation"},
	{xp.ErrInvalidStreakDays, http.StatusInternalServerError, 50001, "xp rule violation"},
	{xp.ErrInvalidTimestamp, http.StatusInternalServerError, 50001, "xp rule violation"},
}

// respondError translates a service error into the JSON envelope.
func respondError(ctx *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				utils.Logger.Error(m.message, zap.Error(err), zap.String("path", ctx.FullPath()))
			}
			utils.Error(ctx, m.status, m.code, m.message)
			return
		}
	}
	utils.Logger.Error("request failed", zap.Error(err), zap.String("path", ctx.FullPath()))
	utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
}
