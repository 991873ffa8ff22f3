package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leave-portal/internal/session"
	"leave-portal/internal/shared/apperror"
	platform "leave-portal/internal/shared/request"
	"leave-portal/internal/shared/response"
)

const accessTokenCookie = "access_token"

type Handler struct {
	service      Service
	secureCookie bool
	logger       *zap.Logger
}

// NewHandler takes secureCookie from config.IsProduction.
func NewHandler(s Service, secureCookie bool, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("auth.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.handler")
	}
	return &Handler{service: s, secureCookie: secureCookie, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	if httpErr.Status >= http.StatusInternalServerError {
		h.logger.Error("auth request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) setTokenCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	clientType := platform.ResolveClientType(c.GetHeader("X-Client-Type"), c.GetHeader("User-Agent"))
	if platform.IsWebClient(clientType) {
		h.setTokenCookie(c, res.AccessToken, int(res.ExpiresIn))
	}

	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res, nil)
}

func (h *Handler) Me(c *gin.Context) {
	id, err := session.FromContext(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, apperror.ErrUnauthorized)
		return
	}

	res, err := h.service.GetMe(c.Request.Context(), id.UserID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

// Logout always clears the cookie; the stored revocation only matters for
// bearer clients holding a copy of the token.
func (h *Handler) Logout(c *gin.Context) {
	h.setTokenCookie(c, "", -1)

	id, err := session.FromContext(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, apperror.ErrUnauthorized)
		return
	}
	if err := h.service.Logout(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "logged out"}, nil)
}
