package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/churchquest/xpcore/middleware"
)

func getUserID(ctx *gin.Context) (string, bool) {
	id := ctx.GetString(middleware.ContextUserIDKey)
	return id, id != ""
}

// parseLimitOffset reads limit (default 30, max 50) and offset.
func parseLimitOffset(ctx *gin.Context) (int, int) {
	limit := 30
	if l, err := strconv.Atoi(ctx.Query("limit")); err == nil && l > 0 {
		limit = min(l, 50)
	}
	offset := 0
	if o, err := strconv.Atoi(ctx.Query("offset")); err == nil && o > 0 {
		offset = o
	}
	return limit, offset
}
