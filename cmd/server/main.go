package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/trip-planner-go/internal/config"
	"github.com/arnavshah/trip-planner-go/internal/logging"
	"github.com/arnavshah/trip-planner-go/internal/server"
)

func main() {
	cfg, err := config.Load("config.toml")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger, err := logging.New(cfg.Logs.Level)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := server.New(cfg, gin.Default(), logger)
	if err != nil {
		logger.Fatal("could not initialise server", zap.Error(err))
	}

	logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("could not run server", zap.Error(err))
	}
}
