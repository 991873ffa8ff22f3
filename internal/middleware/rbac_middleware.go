package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leave-portal/internal/domain"
	"leave-portal/internal/shared/apperror"
	"leave-portal/internal/shared/contextutil"
	"leave-portal/internal/shared/response"
)

// RBACService is satisfied by rbac.Service.
type RBACService interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "missing auth context", nil)
			c.Abort()
			return
		}

		allowed, err := service.Enforce(domain.EnforceRequest{
			Role:     role,
			Resource: resource,
			Action:   action,
		})
		if err != nil {
			contextutil.GetLogger(c.Request.Context(), zap.L()).Error("rbac enforce failed", zap.Error(err))
			response.Error(c, http.StatusInternalServerError, apperror.CodeInternalError, apperror.ErrInternal.Message, nil)
			c.Abort()
			return
		}

		if !allowed {
			response.Error(c, http.StatusForbidden, apperror.CodeForbidden, apperror.ErrForbidden.Message,
				map[string]string{"required": resource + ":" + action})
			c.Abort()
			return
		}
		c.Next()
	}
}
