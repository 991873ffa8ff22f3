package auth

import (
	"github.com/gin-gonic/gin"

	"leave-portal/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, authMiddleware gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", middleware.RateLimitByIP(0.2, 5), handler.Login)
		auth.POST("/register", middleware.RateLimitByIP(0.1, 3), handler.Register)
		auth.GET("/me", authMiddleware, middleware.RateLimitByUser(2, 5), handler.Me)
		auth.POST("/logout", authMiddleware, handler.Logout)
	}
}
