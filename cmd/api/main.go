package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leave-portal/internal/app"
	"leave-portal/internal/bootstrap"
	"leave-portal/internal/config"
	"leave-portal/internal/shared/apperror"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	if err := app.BuildApp(r, cfg); err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}

	bootstrap.StartHTTPServer(
		r,
		bootstrap.ServerConfig{
			Port:         cfg.Port,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		bootstrap.NewStdoutAuditLogger(logger),
	)
}

func newLogger(cfg *config.Config) *zap.Logger {
	build := zap.NewDevelopment
	if cfg.IsProduction() {
		build = zap.NewProduction
	}
	logger, err := build()
	if err != nil {
		panic(err)
	}
	return logger
}
