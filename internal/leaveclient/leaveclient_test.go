package leaveclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"leave-portal/internal/auth"
	authmock "leave-portal/internal/auth/mock"
	"leave-portal/internal/domain"
	"leave-portal/internal/leave"
	leaveerrors "leave-portal/internal/leave/errors"
	leavemock "leave-portal/internal/leave/mock"
	"leave-portal/internal/leaveclient"
	"leave-portal/internal/leavetype"
	leavetypemock "leave-portal/internal/leavetype/mock"
	"leave-portal/internal/middleware"
	"leave-portal/internal/session"
	"leave-portal/internal/shared/apperror"
)

type allowAll struct{}

func (allowAll) Enforce(domain.EnforceRequest) (bool, error) { return true, nil }

type noRevoker struct{}

func (noRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error { return nil }
func (noRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error)     { return false, nil }

type fixture struct {
	server   *httptest.Server
	issuer   *session.TokenIssuer
	authSvc  *authmock.MockService
	leaveSvc *leavemock.MockService
	types    *leavetypemock.MockRepository
	client   *leaveclient.Client
}

var today = time.Date(2024, 6, 20, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	apperror.Init()

	ctrl := gomock.NewController(t)
	f := &fixture{
		issuer:   session.NewTokenIssuer("test-secret", time.Hour),
		authSvc:  authmock.NewMockService(ctrl),
		leaveSvc: leavemock.NewMockService(ctrl),
		types:    leavetypemock.NewMockRepository(ctrl),
	}

	router := gin.New()
	api := router.Group("/api/v1")
	authMW := middleware.AuthMiddleware(f.issuer, noRevoker{})
	passthrough := func(c *gin.Context) { c.Next() }

	auth.RegisterRoutes(api, auth.NewHandler(f.authSvc, false), authMW)
	leavetype.RegisterRoutes(api, leavetype.NewHandler(leavetype.NewService(f.types, nil)), authMW)
	leave.RegisterRoutes(api, leave.NewHandler(f.leaveSvc), authMW, allowAll{}, passthrough)

	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)
	f.client = leaveclient.New(f.server.URL, leaveclient.WithClock(func() time.Time { return today }))
	return f
}

func (f *fixture) login(t *testing.T, role session.Role) *leaveclient.Session {
	t.Helper()
	id := session.Identity{UserID: uuid.New(), Role: role, Email: string(role) + "@example.com", FirstName: "Pat", LastName: string(role)}
	token, _, err := f.issuer.Issue(id)
	assert.NoError(t, err)

	f.authSvc.EXPECT().Login(gomock.Any(), id.Email, "secret1").Return(auth.LoginResponse{
		User:        auth.AuthResponse{ID: id.UserID.String(), Email: id.Email, FirstName: id.FirstName, LastName: id.LastName, Role: string(role)},
		AccessToken: token,
		ExpiresIn:   3600,
	}, nil)

	s, err := f.client.Login(context.Background(), id.Email, "secret1")
	assert.NoError(t, err)
	return s
}

func pending(owner session.Identity) leave.LeaveResponse {
	return leave.LeaveResponse{
		ID:         uuid.NewString(),
		EmployeeID: owner.UserID.String(),
		LeaveType:  "annual",
		StartDate:  "2024-07-01",
		EndDate:    "2024-07-03",
		Status:     "pending",
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	s := f.login(t, session.RoleManager)

	id := s.Identity()
	assert.Equal(t, session.RoleManager, id.Role)
	assert.Equal(t, "Pat manager", id.FullName())

	t.Run("bad credentials", func(t *testing.T) {
		f.authSvc.EXPECT().Login(gomock.Any(), "x@example.com", "nope").Return(auth.LoginResponse{},
			apperror.New("AUTH_FAILED", "invalid email or password", http.StatusUnauthorized))

		_, err := f.client.Login(context.Background(), "x@example.com", "nope")
		var authErr *leaveclient.AuthorizationError
		assert.ErrorAs(t, err, &authErr)
	})
}

func TestSession_CatalogFetchedOnce(t *testing.T) {
	f := newFixture(t)
	s := f.login(t, session.RoleEmployee)
	f.types.EXPECT().FindAll(gomock.Any()).Return(leavetype.DefaultLeaveTypes, nil).Times(1)

	first, err := s.Catalog(context.Background())
	assert.NoError(t, err)
	second, err := s.Catalog(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, 4, first.Len())
	assert.Equal(t, first.All(), second.All())
	annual, ok := first.Lookup("annual")
	assert.True(t, ok)
	assert.Equal(t, 20, annual.MaxDaysPerYear)
}

func TestSession_Apply(t *testing.T) {
	f := newFixture(t)
	s := f.login(t, session.RoleEmployee)
	f.types.EXPECT().FindAll(gomock.Any()).Return(leavetype.DefaultLeaveTypes, nil)

	t.Run("rejected locally without a call", func(t *testing.T) {
		_, err := s.Apply(context.Background(), leave.ApplyLeaveRequest{LeaveType: "annual", StartDate: "2024-07-03", EndDate: "2024-07-01", Reason: "Trip"})

		var vErr *leaveclient.ValidationError
		assert.ErrorAs(t, err, &vErr)
		assert.Equal(t, apperror.CodeValidation, vErr.Code)
		assert.Equal(t, "end date must be on or after start date", vErr.Fields["end_date"])
	})

	t.Run("submitted", func(t *testing.T) {
		req := leave.ApplyLeaveRequest{LeaveType: "annual", StartDate: "2024-07-01", EndDate: "2024-07-03", Reason: "Trip"}
		f.leaveSvc.EXPECT().Apply(gomock.Any(), gomock.Any(), req).Return(leave.ApplyLeaveResponse{
			LeaveResponse: leave.LeaveResponse{ID: uuid.NewString(), Status: "pending", WorkingDays: 3},
		}, nil)

		res, err := s.Apply(context.Background(), req)
		assert.NoError(t, err)
		assert.Equal(t, 3, res.WorkingDays)
	})

	t.Run("server allowance refusal", func(t *testing.T) {
		req := leave.ApplyLeaveRequest{LeaveType: "annual", StartDate: "2024-08-01", EndDate: "2024-08-30", Reason: "Long trip"}
		f.leaveSvc.EXPECT().Apply(gomock.Any(), gomock.Any(), req).Return(leave.ApplyLeaveResponse{},
			leaveerrors.ErrAllowanceExceeded.WithDetails(map[string]int{"used_days": 0, "requested_days": 30, "max_days_per_year": 20}))

		_, err := s.Apply(context.Background(), req)
		var vErr *leaveclient.ValidationError
		assert.ErrorAs(t, err, &vErr)
		assert.Equal(t, apperror.CodeAllowanceExceeded, vErr.Code)
		assert.Equal(t, "30", vErr.Fields["requested_days"])
	})
}

func TestSession_TransitionPrechecks(t *testing.T) {
	f := newFixture(t)
	employee := f.login(t, session.RoleEmployee)
	manager := f.login(t, session.RoleManager)
	mine := pending(employee.Identity())

	t.Run("employee cannot approve", func(t *testing.T) {
		_, err := employee.Approve(context.Background(), mine)
		var authErr *leaveclient.AuthorizationError
		assert.ErrorAs(t, err, &authErr)
	})

	t.Run("manager cannot cancel someone else's", func(t *testing.T) {
		_, err := manager.Cancel(context.Background(), mine)
		var authErr *leaveclient.AuthorizationError
		assert.ErrorAs(t, err, &authErr)
	})

	t.Run("terminal snapshot conflicts locally", func(t *testing.T) {
		rejected := mine
		rejected.Status = "rejected"
		_, err := employee.Cancel(context.Background(), rejected)
		var conflict *leaveclient.StateConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("race lost on the server", func(t *testing.T) {
		f.leaveSvc.EXPECT().Decline(gomock.Any(), gomock.Any(), mine.ID).Return(leave.LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition)

		_, err := manager.Decline(context.Background(), mine)
		var conflict *leaveclient.StateConflictError
		assert.ErrorAs(t, err, &conflict)
		assert.Equal(t, apperror.CodeInvalidState, conflict.Code)
	})

	t.Run("cancel goes through the body", func(t *testing.T) {
		cancelled := mine
		cancelled.Status = "cancelled"
		f.leaveSvc.EXPECT().Cancel(gomock.Any(), gomock.Any(), mine.ID).Return(cancelled, nil)

		res, err := employee.Cancel(context.Background(), mine)
		assert.NoError(t, err)
		assert.Equal(t, "cancelled", res.Status)
	})

	t.Run("manager views are refused locally", func(t *testing.T) {
		_, err := employee.PendingRequests(context.Background())
		var authErr *leaveclient.AuthorizationError
		assert.ErrorAs(t, err, &authErr)
	})
}

func TestView(t *testing.T) {
	f := newFixture(t)
	employee := f.login(t, session.RoleEmployee)
	manager := f.login(t, session.RoleManager)
	first := pending(employee.Identity())
	second := pending(employee.Identity())

	t.Run("approve removes the row from the pending queue", func(t *testing.T) {
		f.leaveSvc.EXPECT().PendingRequests(gomock.Any(), gomock.Any()).Return([]leave.LeaveResponse{first, second}, nil)
		view := manager.OpenView(leaveclient.ViewPending)
		defer view.Close()

		rows, err := view.Refresh(context.Background())
		assert.NoError(t, err)
		assert.Len(t, rows, 2)

		approved := first
		approved.Status = "approved"
		f.leaveSvc.EXPECT().Approve(gomock.Any(), gomock.Any(), first.ID).Return(approved, nil)

		_, err = view.Perform(context.Background(), leave.ActionApprove, first.ID)
		assert.NoError(t, err)
		assert.Equal(t, []leave.LeaveResponse{second}, view.Rows())
	})

	t.Run("failed action keeps the snapshot", func(t *testing.T) {
		f.leaveSvc.EXPECT().PendingRequests(gomock.Any(), gomock.Any()).Return([]leave.LeaveResponse{first}, nil)
		view := manager.OpenView(leaveclient.ViewPending)
		defer view.Close()
		_, err := view.Refresh(context.Background())
		assert.NoError(t, err)

		f.leaveSvc.EXPECT().Decline(gomock.Any(), gomock.Any(), first.ID).Return(leave.LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition)

		_, err = view.Perform(context.Background(), leave.ActionDecline, first.ID)
		var conflict *leaveclient.StateConflictError
		assert.ErrorAs(t, err, &conflict)
		assert.Equal(t, []leave.LeaveResponse{first}, view.Rows())

		_, err = view.Perform(context.Background(), leave.ActionDecline, uuid.NewString())
		assert.ErrorIs(t, err, leaveclient.ErrNotInView)
	})

	t.Run("result after close is discarded", func(t *testing.T) {
		view := employee.OpenView(leaveclient.ViewHistory)
		f.leaveSvc.EXPECT().History(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, actor session.Identity) ([]leave.LeaveResponse, error) {
				view.Close()
				return []leave.LeaveResponse{first}, nil
			})

		_, err := view.Refresh(context.Background())
		assert.ErrorIs(t, err, leaveclient.ErrViewClosed)
		assert.Empty(t, view.Rows())

		_, err = view.Refresh(context.Background())
		assert.ErrorIs(t, err, leaveclient.ErrViewClosed)
	})
}

func TestSession_Logout(t *testing.T) {
	f := newFixture(t)
	s := f.login(t, session.RoleEmployee)
	f.authSvc.EXPECT().Logout(gomock.Any(), gomock.Any()).Return(nil)

	assert.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, session.Identity{}, s.Identity())

	_, err := s.History(context.Background())
	assert.ErrorIs(t, err, leaveclient.ErrLoggedOut)
	_, err = s.Catalog(context.Background())
	assert.ErrorIs(t, err, leaveclient.ErrLoggedOut)
}

func TestTransportErrors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := leaveclient.New(url).Login(context.Background(), "a@example.com", "secret1")
		var tErr *leaveclient.TransportError
		assert.ErrorAs(t, err, &tErr)
		assert.Equal(t, 0, tErr.Status)
	})

	t.Run("unexpected body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		}))
		defer srv.Close()

		_, err := leaveclient.New(srv.URL).Login(context.Background(), "a@example.com", "secret1")
		var tErr *leaveclient.TransportError
		assert.ErrorAs(t, err, &tErr)
		assert.Equal(t, http.StatusBadGateway, tErr.Status)
		assert.False(t, errors.Is(err, leaveclient.ErrViewClosed))
	})

	t.Run("server error envelope", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"ok":false,"error":{"code":"INTERNAL_ERROR","message":"boom"}}`))
		}))
		defer srv.Close()

		_, err := leaveclient.New(srv.URL).Login(context.Background(), "a@example.com", "secret1")
		var tErr *leaveclient.TransportError
		assert.ErrorAs(t, err, &tErr)
		assert.Equal(t, http.StatusInternalServerError, tErr.Status)
	})
}
