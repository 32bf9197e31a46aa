package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/trip-planner-go/internal/config"
	"github.com/arnavshah/trip-planner-go/internal/logging"
	"github.com/arnavshah/trip-planner-go/internal/server"
)

var r *gin.Engine

func init() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.Logs.Level)
	if err != nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	r, err = server.New(cfg, engine, logger)
	if err != nil {
		logger.Fatal("could not initialise server", zap.Error(err))
	}
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
