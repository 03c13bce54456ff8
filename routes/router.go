package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/churchquest/xpcore/config"
	"github.com/churchquest/xpcore/controllers"
	"github.com/churchquest/xpcore/middleware"
	"github.com/churchquest/xpcore/services"
	"github.com/churchquest/xpcore/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		utils.Sugar.Warnf("gin access log disabled: %v", err)
		gl = utils.Logger
	}
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	xpService := services.NewXPService(db, cfg.Location(), utils.Logger)
	pointsService := services.NewPointsService(db)
	submissionService := services.NewSubmissionService(db, xpService, pointsService, utils.Logger)

	submissionController := controllers.NewSubmissionController(submissionService)
	meController := controllers.NewMeController(xpService, pointsService, cfg.ProgressCacheTTL)

	api := r.Group("/api/v1")
	api.Use(middleware.AuthRequired())

	submissions := api.Group("/submissions")
	submissions.POST("", middleware.RateLimitMiddleware(), submissionController.Create)
	submissions.GET("/mine", submissionController.ListMine)

	admin := submissions.Group("")
	admin.Use(middleware.RequireAdmin())
	admin.GET("/pending", submissionController.ListPending)
	admin.POST("/:id/approve", middleware.RateLimitMiddleware(), submissionController.Approve)
	admin.POST("/:id/reject", middleware.RateLimitMiddleware(), submissionController.Reject)

	me := api.Group("/me")
	me.GET("/xp", meController.XP)
	me.GET("/xp/history", meController.XPHistory)
	me.GET("/points", meController.Points)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
