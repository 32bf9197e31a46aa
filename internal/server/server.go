// Package server assembles the HTTP service from configuration. Both the
// standalone binary and the serverless entry point build on it.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/trip-planner-go/internal/config"
	"github.com/arnavshah/trip-planner-go/pkg/auth"
	"github.com/arnavshah/trip-planner-go/pkg/database"
	"github.com/arnavshah/trip-planner-go/pkg/handlers"
	"github.com/arnavshah/trip-planner-go/pkg/metrics"
	"github.com/arnavshah/trip-planner-go/pkg/planner"
)

// New opens the store, seeds the admin account and mounts every route on
// engine.
func New(cfg *config.Config, engine *gin.Engine, logger *zap.Logger) (*gin.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.Open(cfg.Database.URL, cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	store := database.NewStore(db)

	authenticator := auth.New(cfg.Auth)
	if err := authenticator.EnsureAdminExists(store, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, logger); err != nil {
		return nil, err
	}

	h := &handlers.Handler{
		Store: store,
		Auth:  authenticator,
		Planner: planner.New(planner.Options{
			Seed:      cfg.Planner.Seed,
			TimeLimit: cfg.Planner.TimeLimit(),
			Logger:    logger.Named("planner"),
		}),
		Logger:           logger.Named("http"),
		DefaultRateLimit: cfg.Auth.DefaultRateLimit,
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		h.Metrics = metrics.New(cfg.Metrics.ServiceName)
		metricsPath = cfg.Metrics.Path
	}

	return handlers.NewRouter(engine, h, metricsPath), nil
}
