package rbac

import (
	"github.com/gin-gonic/gin"

	"leave-portal/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, service Service, authMiddleware gin.HandlerFunc) {
	group := r.Group("/rbac")
	group.Use(authMiddleware, middleware.RBACAuthorize(service, ResourceRBAC, ActionRead))
	{
		group.POST("/enforce", handler.Enforce)
		group.GET("/permissions", handler.Permissions)
	}
}
