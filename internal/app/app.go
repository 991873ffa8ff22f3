package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"leave-portal/internal/auth"
	"leave-portal/internal/config"
	"leave-portal/internal/leave"
	"leave-portal/internal/leavetype"
	"leave-portal/internal/messaging/kafka"
	"leave-portal/internal/middleware"
	"leave-portal/internal/observability"
	"leave-portal/internal/rbac"
	"leave-portal/internal/shared/connection"
)

// BuildApp connects the infrastructure, migrates the schema and mounts every
// module on router.
func BuildApp(router *gin.Engine, cfg *config.Config) error {
	logger := zap.L().Named("app")

	gormDB, err := connection.ConnectGORMWithRetry(cfg, 5)
	if err != nil {
		return err
	}

	redisClient, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		return err
	}

	if err := migrate(gormDB); err != nil {
		return err
	}
	logger.Info("schema migrated")

	setupRouter(router, cfg, gormDB, redisClient)
	return registerModules(router, cfg, gormDB, redisClient)
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&auth.User{},
		&leavetype.LeaveType{},
		&leave.Leave{},
		&rbac.RolePermission{},
		&kafka.OutboxRecord{},
	)
}

func setupRouter(router *gin.Engine, cfg *config.Config, gormDB *gorm.DB, rdb *redis.Client) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origins(),
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID, middleware.HeaderIdempotencyKey, "X-Client-Type"},
		ExposeHeaders:    []string{middleware.HeaderRequestID, middleware.HeaderReplayed, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.ContextLogger(zap.L()))
	router.Use(observability.GinMiddleware())

	router.GET("/healthz", healthz(gormDB, rdb))
	router.GET("/metrics", observability.Handler())
}

func healthz(gormDB *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"database": "ok", "redis": "ok"}
		code := http.StatusOK

		if sqlDB, err := gormDB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"] = "down"
			code = http.StatusServiceUnavailable
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			status["redis"] = "down"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
