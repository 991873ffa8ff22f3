package leave

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"leave-portal/internal/session"
	"leave-portal/internal/shared/apperror"
	"leave-portal/internal/shared/response"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) actor(c *gin.Context) (session.Identity, bool) {
	id, err := session.FromContext(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, apperror.ErrUnauthorized.Message, nil)
		return session.Identity{}, false
	}
	return id, true
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("leave request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Apply(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req ApplyLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http apply leave bad body", zap.Error(err))
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "request body must be a JSON object", nil)
		return
	}

	resp, err := h.service.Apply(c.Request.Context(), actor, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) History(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	resp, err := h.service.History(c.Request.Context(), actor)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Balance(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	year := 0
	if v := c.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "year must be a positive number", nil)
			return
		}
		year = y
	}
	resp, err := h.service.Balance(c.Request.Context(), actor, year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req CancelLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http cancel leave validation failed", zap.Error(err))
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Cancel(c.Request.Context(), actor, req.ID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Pending(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	resp, err := h.service.PendingRequests(c.Request.Context(), actor)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	resp, err := h.service.Approve(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Decline(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	resp, err := h.service.Decline(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

// ManagerHistory returns everything unless page is given, then it pages
// with page_size (default 10, at most 100).
func (h *Handler) ManagerHistory(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeServiceError(c, bindQueryError(err))
		return
	}

	resp, err := h.service.ManagerHistory(c.Request.Context(), actor)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if q.Page == nil {
		response.Success(c, http.StatusOK, resp, nil)
		return
	}
	rows, meta := response.Paginate(resp, *q.Page, q.PageSize)
	response.Success(c, http.StatusOK, rows, &meta)
}

// bindQueryError keeps rule violations as field errors and reports values
// that do not parse at all as invalid input.
func bindQueryError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperror.MapValidationError(err)
	}
	return apperror.ErrInvalidInput
}

func (h *Handler) Report(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	rows, err := h.service.Report(c.Request.Context(), actor)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if c.Query("format") != "csv" {
		response.Success(c, http.StatusOK, rows, nil)
		return
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Attachment(c, "leave-report.csv", "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) Calendar(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var q CalendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Calendar(c.Request.Context(), actor, q.From, q.To)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
