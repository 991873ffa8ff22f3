package response

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PaginationMeta struct {
	Total      int64 `json:"total,omitempty"`
	TotalPages int   `json:"totalPages,omitempty"`
	Page       int   `json:"page,omitempty"`
	PageSize   int   `json:"pageSize,omitempty"`
}

func NewPaginationMeta(total int64, page, limit int) PaginationMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PaginationMeta{Total: total, TotalPages: totalPages, Page: page, PageSize: limit}
}

// Paginate slices an in-memory list. Pages past the end are empty. Any
// positive page and pageSize are safe, however large.
func Paginate[T any](items []T, page, pageSize int) ([]T, PaginationMeta) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	meta := NewPaginationMeta(int64(len(items)), page, pageSize)

	pages := len(items) / pageSize
	if len(items)%pageSize != 0 {
		pages++
	}
	if page > pages {
		return items[len(items):], meta
	}
	start := (page - 1) * pageSize
	end := start + min(pageSize, len(items)-start)
	return items[start:end], meta
}

// ErrorBody is the error member of the envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

type ApiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  any             `json:"data,omitempty"`
	Meta  *PaginationMeta `json:"meta,omitempty"`
	Error *ErrorBody      `json:"error,omitempty"`
}

func Success(c *gin.Context, status int, data any, meta *PaginationMeta) {
	c.JSON(status, ApiEnvelope{Ok: true, Data: data, Meta: meta})
}

func Error(c *gin.Context, status int, errorCode string, message string, details any) {
	c.JSON(status, ApiEnvelope{
		Error: &ErrorBody{Code: errorCode, Message: message, Details: details},
	})
}

// Attachment sends body as a download outside the envelope.
func Attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, body)
}
