package app

import (
	"context"
	"time"

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
	"leave-portal/internal/rbac"
	"leave-portal/internal/rbac/infra"
	"leave-portal/internal/session"
)

const sessionTTL = 8 * time.Hour

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	logger := zap.L()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := gormDB.DB()
	if err != nil {
		return err
	}

	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	authRepo := auth.NewRepository(gormDB)
	leaveTypeRepo := leavetype.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer, logger)
	if err := rbacService.LoadPolicy(ctx); err != nil {
		return err
	}

	// --- Session ---
	issuer := session.NewTokenIssuer(cfg.JWTSecret, sessionTTL)
	revoker := session.NewRedisRevoker(rdb)
	authMiddleware := middleware.AuthMiddleware(issuer, revoker)

	// --- Services ---
	calendar, err := leave.NewCalendar(cfg.WorkingDayPolicy, cfg.HolidayList())
	if err != nil {
		return err
	}

	authService := auth.NewService(authRepo, issuer, revoker, logger)
	leaveTypeService := leavetype.NewService(leaveTypeRepo, rdb, logger)
	if err := leaveTypeService.Seed(ctx); err != nil {
		return err
	}
	leaveService := leave.NewService(db, leaveRepo, leaveTypeService,
		leave.WithOutbox(outboxRepo),
		leave.WithCalendar(calendar),
		leave.WithLogger(logger),
	)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, cfg.IsProduction(), logger)
	leaveTypeHandler := leavetype.NewHandler(leaveTypeService, logger)
	leaveHandler := leave.NewHandler(leaveService, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, authMiddleware)
		leavetype.RegisterRoutes(api, leaveTypeHandler, authMiddleware)
		leave.RegisterRoutes(api, leaveHandler, authMiddleware, rbacService, middleware.Idempotency(rdb))
		rbac.RegisterRoutes(api, rbacHandler, rbacService, authMiddleware)
	}

	return nil
}
