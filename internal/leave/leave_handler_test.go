package leave_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"leave-portal/internal/leave"
	leaveerrors "leave-portal/internal/leave/errors"
	leavemock "leave-portal/internal/leave/mock"
	"leave-portal/internal/session"
	"leave-portal/internal/shared/apperror"
)

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Meta  *struct {
		Total      int64 `json:"total"`
		TotalPages int   `json:"totalPages"`
		Page       int   `json:"page"`
		PageSize   int   `json:"pageSize"`
	} `json:"meta"`
	Error *apiError `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	assert.NoError(t, json.Unmarshal(body, &env))
	return env
}

func setupLeaveRouter(t *testing.T, actor *session.Identity) (*gin.Engine, *leavemock.MockService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	apperror.Init()

	ctrl := gomock.NewController(t)
	svc := leavemock.NewMockService(ctrl)
	handler := leave.NewHandler(svc)

	r := gin.New()
	if actor != nil {
		id := *actor
		r.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(session.WithIdentity(c.Request.Context(), id))
			c.Next()
		})
	}
	g := r.Group("/leave")
	g.POST("/apply", handler.Apply)
	g.GET("/history", handler.History)
	g.GET("/balance", handler.Balance)
	g.PATCH("/cancel-leave", handler.Cancel)
	g.GET("/requests", handler.Pending)
	g.PATCH("/requests/:id/approve", handler.Approve)
	g.PATCH("/requests/:id/decline", handler.Decline)
	g.GET("/manager-history", handler.ManagerHistory)
	g.GET("/manager/report", handler.Report)
	g.GET("/calendar", handler.Calendar)
	return r, svc
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLeaveHandler_Apply(t *testing.T) {
	employee := identity(session.RoleEmployee)

	t.Run("created", func(t *testing.T) {
		r, svc := setupLeaveRouter(t, &employee)
		req := leave.ApplyLeaveRequest{LeaveType: "annual", StartDate: "2024-07-01", EndDate: "2024-07-03", Reason: "Trip"}
		svc.EXPECT().Apply(gomock.Any(), employee, req).Return(leave.ApplyLeaveResponse{
			LeaveResponse: leave.LeaveResponse{ID: uuid.NewString(), Status: "pending", WorkingDays: 3},
			Warnings:      []string{"overlaps your approved annual leave from 2024-07-02 to 2024-07-04"},
		}, nil)

		w := doJSON(r, http.MethodPost, "/leave/apply", req)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var data leave.ApplyLeaveResponse
		assert.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, 3, data.WorkingDays)
		assert.Len(t, data.Warnings, 1)
	})

	t.Run("field errors", func(t *testing.T) {
		r, svc := setupLeaveRouter(t, &employee)
		svc.EXPECT().Apply(gomock.Any(), employee, gomock.Any()).Return(leave.ApplyLeaveResponse{},
			leave.ValidationResult{"end_date": "end date must be on or after start date"}.Err())

		w := doJSON(r, http.MethodPost, "/leave/apply", leave.ApplyLeaveRequest{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, apperror.CodeValidation, env.Error.Code)
		assert.Equal(t, "end date must be on or after start date", env.Error.Details["end_date"])
	})

	t.Run("malformed body", func(t *testing.T) {
		r, _ := setupLeaveRouter(t, &employee)
		req := httptest.NewRequest(http.MethodPost, "/leave/apply", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperror.CodeInvalidInput, decodeEnvelope(t, w.Body.Bytes()).Error.Code)
	})

	t.Run("no session", func(t *testing.T) {
		r, _ := setupLeaveRouter(t, nil)
		w := doJSON(r, http.MethodPost, "/leave/apply", leave.ApplyLeaveRequest{})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLeaveHandler_Decisions(t *testing.T) {
	manager := identity(session.RoleManager)
	id := uuid.NewString()

	tests := []struct {
		name       string
		path       string
		expect     func(svc *leavemock.MockService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "approve",
			path: "/leave/requests/" + id + "/approve",
			expect: func(svc *leavemock.MockService) {
				svc.EXPECT().Approve(gomock.Any(), manager, id).Return(leave.LeaveResponse{ID: id, Status: "approved"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "decline after approve conflicts",
			path: "/leave/requests/" + id + "/decline",
			expect: func(svc *leavemock.MockService) {
				svc.EXPECT().Decline(gomock.Any(), manager, id).Return(leave.LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition)
			},
			wantStatus: http.StatusConflict,
			wantCode:   apperror.CodeInvalidState,
		},
		{
			name: "unknown request",
			path: "/leave/requests/" + id + "/approve",
			expect: func(svc *leavemock.MockService) {
				svc.EXPECT().Approve(gomock.Any(), manager, id).Return(leave.LeaveResponse{}, leaveerrors.ErrLeaveNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantCode:   apperror.CodeNotFound,
		},
		{
			name: "role refused",
			path: "/leave/requests/" + id + "/decline",
			expect: func(svc *leavemock.MockService) {
				svc.EXPECT().Decline(gomock.Any(), manager, id).Return(leave.LeaveResponse{}, leaveerrors.ErrRoleNotAllowed)
			},
			wantStatus: http.StatusForbidden,
			wantCode:   apperror.CodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, svc := setupLeaveRouter(t, &manager)
			tt.expect(svc)

			w := doJSON(r, http.MethodPatch, tt.path, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeEnvelope(t, w.Body.Bytes()).Error.Code)
			}
		})
	}
}

func TestLeaveHandler_Cancel(t *testing.T) {
	employee := identity(session.RoleEmployee)

	t.Run("ok", func(t *testing.T) {
		r, svc := setupLeaveRouter(t, &employee)
		id := uuid.NewString()
		svc.EXPECT().Cancel(gomock.Any(), employee, id).Return(leave.LeaveResponse{ID: id, Status: "cancelled"}, nil)

		w := doJSON(r, http.MethodPatch, "/leave/cancel-leave", leave.CancelLeaveRequest{ID: id})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("id must be a uuid", func(t *testing.T) {
		r, _ := setupLeaveRouter(t, &employee)
		w := doJSON(r, http.MethodPatch, "/leave/cancel-leave", leave.CancelLeaveRequest{ID: "42"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.Equal(t, apperror.CodeValidation, env.Error.Code)
		assert.Contains(t, env.Error.Details, "id")
	})
}

func TestLeaveHandler_ManagerHistoryPaging(t *testing.T) {
	manager := identity(session.RoleManager)
	rows := make([]leave.LeaveResponse, 12)
	for i := range rows {
		rows[i] = leave.LeaveResponse{ID: uuid.NewString()}
	}

	t.Run("unpaged returns everything", func(t *testing.T) {
		r, svc := setupLeaveRouter(t, &manager)
		svc.EXPECT().ManagerHistory(gomock.Any(), manager).Return(rows, nil)

		w := doJSON(r, http.MethodGet, "/leave/manager-history", nil)
		env := decodeEnvelope(t, w.Body.Bytes())
		var data []leave.LeaveResponse
		assert.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Len(t, data, 12)
		assert.Nil(t, env.Meta)
	})

	t.Run("second page", func(t *testing.T) {
		r, svc := setupLeaveRouter(t, &manager)
		svc.EXPECT().ManagerHistory(gomock.Any(), manager).Return(rows, nil)

		w := doJSON(r, http.MethodGet, "/leave/manager-history?page=2&page_size=5", nil)
		env := decodeEnvelope(t, w.Body.Bytes())
		var data []leave.LeaveResponse
		assert.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Len(t, data, 5)
		assert.Equal(t, rows[5].ID, data[0].ID)
		assert.Equal(t, int64(12), env.Meta.Total)
		assert.Equal(t, 3, env.Meta.TotalPages)
	})

	t.Run("page far past the end is empty", func(t *testing.T) {
		r, svc := setupLeaveRouter(t, &manager)
		svc.EXPECT().ManagerHistory(gomock.Any(), manager).Return(rows, nil)

		w := doJSON(r, http.MethodGet, "/leave/manager-history?page=9223372036854775807", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.JSONEq(t, `[]`, string(env.Data))
		assert.Equal(t, int64(12), env.Meta.Total)
	})

	rejected := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"page not a number", "page=abc", apperror.CodeInvalidInput},
		{"page overflows", "page=92233720368547758070", apperror.CodeInvalidInput},
		{"page zero", "page=0", apperror.CodeValidation},
		{"page size over cap", "page=1&page_size=500", apperror.CodeValidation},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := setupLeaveRouter(t, &manager)

			w := doJSON(r, http.MethodGet, "/leave/manager-history?"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, decodeEnvelope(t, w.Body.Bytes()).Error.Code)
		})
	}
}

func TestLeaveHandler_Report(t *testing.T) {
	manager := identity(session.RoleManager)
	rows := []leave.ReportRow{{Employee: "Ann Lee", LeaveType: "Annual", StartDate: "2024-07-01", EndDate: "2024-07-03", Reason: "Trip", Status: "Approved", SubmittedAt: "2024-06-01T09:00:00Z"}}

	t.Run("json", func(t *testing.T) {
		r, svc := setupLeaveRouter(t, &manager)
		svc.EXPECT().Report(gomock.Any(), manager).Return([]leave.ReportRow{}, nil)

		w := doJSON(r, http.MethodGet, "/leave/manager/report", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, string(decodeEnvelope(t, w.Body.Bytes()).Data))
	})

	t.Run("csv", func(t *testing.T) {
		r, svc := setupLeaveRouter(t, &manager)
		svc.EXPECT().Report(gomock.Any(), manager).Return(rows, nil)

		w := doJSON(r, http.MethodGet, "/leave/manager/report?format=csv", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "leave-report.csv")
		assert.Contains(t, w.Body.String(), "Ann Lee,Annual,2024-07-01,2024-07-03,Trip,Approved")
	})
}

func TestLeaveHandler_BalanceAndCalendar(t *testing.T) {
	manager := identity(session.RoleManager)

	t.Run("year must be numeric", func(t *testing.T) {
		r, _ := setupLeaveRouter(t, &manager)
		w := doJSON(r, http.MethodGet, "/leave/balance?year=soon", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("balance for year", func(t *testing.T) {
		r, svc := setupLeaveRouter(t, &manager)
		svc.EXPECT().Balance(gomock.Any(), manager, 2024).Return([]leave.BalanceResponse{{LeaveType: "annual", RemainingDays: 17}}, nil)
		w := doJSON(r, http.MethodGet, "/leave/balance?year=2024", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("calendar needs both bounds", func(t *testing.T) {
		r, _ := setupLeaveRouter(t, &manager)
		w := doJSON(r, http.MethodGet, "/leave/calendar?from=2024-07-01", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("calendar", func(t *testing.T) {
		r, svc := setupLeaveRouter(t, &manager)
		svc.EXPECT().Calendar(gomock.Any(), manager, "2024-07-01", "2024-07-31").Return(leave.CalendarResponse{
			From: "2024-07-01", To: "2024-07-31",
			Days: []leave.OccupiedDay{{Date: "2024-07-02", Count: 2, Employees: []string{"Ann Lee", "Bo Kim"}}},
		}, nil)
		w := doJSON(r, http.MethodGet, "/leave/calendar?from=2024-07-01&to=2024-07-31", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":2`)
	})
}
