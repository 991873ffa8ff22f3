package leave

import (
	"github.com/gin-gonic/gin"

	"leave-portal/internal/middleware"
	"leave-portal/internal/rbac"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	authMiddleware gin.HandlerFunc,
	rbacService middleware.RBACService,
	idempotency gin.HandlerFunc,
) {
	can := func(action string) gin.HandlerFunc {
		return middleware.RBACAuthorize(rbacService, rbac.ResourceLeave, action)
	}

	leaves := r.Group("/leave")
	leaves.Use(authMiddleware)
	{
		leaves.POST("/apply", can(rbac.ActionApply), idempotency, handler.Apply)
		leaves.GET("/history", can(rbac.ActionReadOwn), handler.History)
		leaves.GET("/balance", can(rbac.ActionReadOwn), handler.Balance)
		leaves.PATCH("/cancel-leave", can(rbac.ActionCancel), handler.Cancel)

		leaves.GET("/requests", can(rbac.ActionReview), handler.Pending)
		leaves.PATCH("/requests/:id/approve", can(rbac.ActionReview), handler.Approve)
		leaves.PATCH("/requests/:id/decline", can(rbac.ActionReview), handler.Decline)
		leaves.GET("/manager-history", can(rbac.ActionReview), handler.ManagerHistory)
		leaves.GET("/calendar", can(rbac.ActionReview), handler.Calendar)
		leaves.GET("/manager/report", can(rbac.ActionReport), handler.Report)
	}
}
