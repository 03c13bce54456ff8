package main

import (
	"github.com/churchquest/xpcore/config"
	"github.com/churchquest/xpcore/models"
	"github.com/churchquest/xpcore/routes"
	"github.com/churchquest/xpcore/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(models.All()...)

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful), xp timezone %s", cfg.AppPort, cfg.Location())
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
