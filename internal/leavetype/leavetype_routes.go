package leavetype

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, authMiddleware gin.HandlerFunc) {
	r.GET("/leave/leave-types", authMiddleware, handler.List)
}
