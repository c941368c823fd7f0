package main

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/food-store/config"
	"github.com/yeremiapane/food-store/database"
	"github.com/yeremiapane/food-store/router"
	"github.com/yeremiapane/food-store/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load configuration: %v", err)
	}

	utils.InitLogger(cfg.Log.Level)
	utils.ConfigureJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	switch cfg.Server.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate database: %v", err)
	}

	if cfg.Store.SeedDemoData {
		if err := database.SeedDemoData(db); err != nil {
			utils.ErrorLogger.Printf("Error seeding demo data: %v", err)
		}
	}

	r := router.SetupRouter(db, cfg)

	utils.InfoLogger.Printf("Listening on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}
