package leavetype_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"leave-portal/internal/leavetype"
	leavetypeerrors "leave-portal/internal/leavetype/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type fakeLeaveTypeService struct {
	listFn func(ctx context.Context) ([]leavetype.LeaveTypeResponse, error)
}

func (f *fakeLeaveTypeService) List(ctx context.Context) ([]leavetype.LeaveTypeResponse, error) {
	return f.listFn(ctx)
}
func (f *fakeLeaveTypeService) Catalog(ctx context.Context) (leavetype.Catalog, error) {
	return leavetype.Catalog{}, nil
}
func (f *fakeLeaveTypeService) Seed(ctx context.Context) error { return nil }

func TestLeaveTypeHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success", func(t *testing.T) {
		h := leavetype.NewHandler(&fakeLeaveTypeService{
			listFn: func(ctx context.Context) ([]leavetype.LeaveTypeResponse, error) {
				return []leavetype.LeaveTypeResponse{{Code: "annual", Label: "Annual Leave", MaxDaysPerYear: 20}}, nil
			},
		})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/leave/leave-types", nil)

		h.List(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var env apiEnvelope
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.True(t, env.Ok)
		var got []leavetype.LeaveTypeResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "annual", got[0].Code)
		assert.Equal(t, 20, got[0].MaxDaysPerYear)
	})

	t.Run("negative catalog unavailable", func(t *testing.T) {
		h := leavetype.NewHandler(&fakeLeaveTypeService{
			listFn: func(ctx context.Context) ([]leavetype.LeaveTypeResponse, error) {
				return nil, leavetypeerrors.ErrCatalogUnavailable
			},
		})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/leave/leave-types", nil)

		h.List(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var env apiEnvelope
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.False(t, env.Ok)
		assert.Equal(t, "SERVICE_UNAVAILABLE", env.Error.Code)
	})
}
