package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/churchquest/xpcore/models"
	"github.com/churchquest/xpcore/utils"
)

// RequireRole lets the request through only for the listed roles. Use after AuthRequired.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(ctx *gin.Context) {
		if _, ok := allowed[ctx.GetString(ContextRoleKey)]; !ok {
			utils.Error(ctx, http.StatusForbidden, 40301, "insufficient role")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// RequireAdmin admits ADMIN and SUPERADMIN.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin, models.RoleSuperAdmin)
}
