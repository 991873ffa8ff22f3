package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	autherrors "leave-portal/internal/auth/errors"
	"leave-portal/internal/session"
	"leave-portal/internal/shared/contextutil"
	"leave-portal/internal/shared/response"
)

const (
	ContextUserID   = "user_id"
	ContextRole     = "role"
	ContextIdentity = "identity"
)

// AuthMiddleware accepts a bearer token or the access_token cookie and puts
// the caller's identity on both the gin and the request context.
func AuthMiddleware(issuer *session.TokenIssuer, revoker session.Revoker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			tokenString = ""
		}
		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token not found", nil)
			c.Abort()
			return
		}

		id, _, err := issuer.Parse(tokenString)
		if err != nil {
			errObj := autherrors.ErrInvalidToken
			if errors.Is(err, session.ErrTokenExpired) {
				errObj = autherrors.ErrTokenExpired
			}
			response.Error(c, errObj.HTTPStatus, errObj.Code, errObj.Message, nil)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		if revoker != nil && id.TokenID != "" {
			revoked, err := revoker.IsRevoked(ctx, id.TokenID)
			if err != nil {
				contextutil.GetLogger(ctx, zap.L()).Warn("token revocation check failed", zap.Error(err))
			}
			if revoked {
				errObj := autherrors.ErrTokenRevoked
				response.Error(c, errObj.HTTPStatus, errObj.Code, errObj.Message, nil)
				c.Abort()
				return
			}
		}

		uid := id.UserID.String()
		c.Set(ContextUserID, uid)
		c.Set(ContextRole, string(id.Role))
		c.Set(ContextIdentity, id)

		ctx = session.WithIdentity(ctx, id)
		ctx = contextutil.WithUserID(ctx, uid)
		ctx = contextutil.WithLogger(ctx, contextutil.GetLogger(ctx, zap.L()).With(zap.String("user_id", uid)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
