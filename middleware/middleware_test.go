package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/churchquest/xpcore/config"
	"github.com/churchquest/xpcore/models"
	"github.com/churchquest/xpcore/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{JWTSecret: "middleware-test-secret"})
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{
			"user_id":   ctx.GetString(ContextUserIDKey),
			"role":      ctx.GetString(ContextRoleKey),
			"church_id": ctx.GetString(ContextChurchIDKey),
		})
	})
	r.GET("/", handlers...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredSetsIdentity(t *testing.T) {
	token, err := utils.GenerateToken("u-1", models.RoleUser, "c-1", time.Hour)
	require.NoError(t, err)

	w := do(newEngine(AuthRequired()), token)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"code":0,"message":"success","data":{"user_id":"u-1","role":"USER","church_id":"c-1"}}`, w.Body.String())
}

func TestAuthRequiredRejects(t *testing.T) {
	r := newEngine(AuthRequired())

	require.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	require.Equal(t, http.StatusUnauthorized, do(r, "not-a-jwt").Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	r := newEngine(AuthRequired(), RequireAdmin())

	user, _ := utils.GenerateToken("u-1", models.RoleUser, "c-1", time.Hour)
	admin, _ := utils.GenerateToken("a-1", models.RoleAdmin, "c-1", time.Hour)
	super, _ := utils.GenerateToken("s-1", models.RoleSuperAdmin, "", time.Hour)

	require.Equal(t, http.StatusForbidden, do(r, user).Code)
	require.Equal(t, http.StatusOK, do(r, admin).Code)
	require.Equal(t, http.StatusOK, do(r, super).Code)
}

func TestRateLimitPerUser(t *testing.T) {
	r := newEngine(AuthRequired(), RateLimitPerMinute(2))
	token, _ := utils.GenerateToken("rate-limited-user", models.RoleUser, "", time.Hour)
	other, _ := utils.GenerateToken("rate-other-user", models.RoleUser, "", time.Hour)

	// burst is one request
	require.Equal(t, http.StatusOK, do(r, token).Code)
	require.Equal(t, http.StatusTooManyRequests, do(r, token).Code)
	require.Equal(t, http.StatusOK, do(r, other).Code)
}
