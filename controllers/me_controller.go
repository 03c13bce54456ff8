package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/churchquest/xpcore/middleware"
	"github.com/churchquest/xpcore/services"
	"github.com/churchquest/xpcore/utils"
)

// MeController serves the caller's XP and points views.
type MeController struct {
	xp       *services.XPService
	points   *services.PointsService
	cacheTTL time.Duration
}

// NewMeController creates a new controller instance.
func NewMeController(xpSvc *services.XPService, points *services.PointsService, cacheTTL time.Duration) *MeController {
	return &MeController{xp: xpSvc, points: points, cacheTTL: cacheTTL}
}

// XP returns level, streak and per-category progress. Served from redis when cached.
func (m *MeController) XP(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	key := utils.ProgressCacheKey(userID)
	var cached services.Progress
	if utils.CacheGetJSON(ctx.Request.Context(), key, &cached) {
		utils.Success(ctx, cached)
		return
	}

	progress, err := m.xp.Progress(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.CacheSetJSON(ctx.Request.Context(), key, progress, m.cacheTTL)
	utils.Success(ctx, progress)
}

// XPHistory pages the caller's XP ledger.
func (m *MeController) XPHistory(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	limit, offset := parseLimitOffset(ctx)
	items, total, err := m.xp.History(ctx.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Paged(ctx, items, limit, offset, total)
}

// Points returns the caller's points balance in their church.
func (m *MeController) Points(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	churchID := strings.TrimSpace(ctx.GetString(middleware.ContextChurchIDKey))
	if churchID == "" {
		respondError(ctx, services.ErrNoChurch)
		return
	}
	balance, err := m.points.Balance(ctx.Request.Context(), userID, churchID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"church_id": churchID, "balance": balance})
}
