package leaveclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"leave-portal/internal/auth"
	"leave-portal/internal/leave"
	leaveerrors "leave-portal/internal/leave/errors"
	"leave-portal/internal/leavetype"
	"leave-portal/internal/session"
)

// Session is one login. It owns the bearer token, the actor and the catalog
// fetched for it. Logout drops all of it at once.
type Session struct {
	client *Client

	mu       sync.RWMutex
	token    string
	identity session.Identity
	done     bool

	catalogMu sync.Mutex
	catalog   *leavetype.Catalog
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var res auth.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", auth.LoginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(res.User.ID)
	if err != nil {
		return nil, &TransportError{Status: http.StatusOK, Err: fmt.Errorf("login returned user id %q: %w", res.User.ID, err)}
	}
	role, ok := session.ParseRole(res.User.Role)
	if !ok {
		return nil, &TransportError{Status: http.StatusOK, Err: fmt.Errorf("login returned unknown role %q", res.User.Role)}
	}

	c.logger.Info("logged in", zap.String("user_id", userID.String()), zap.String("role", string(role)))
	return &Session{
		client: c,
		token:  res.AccessToken,
		identity: session.Identity{
			UserID:    userID,
			Role:      role,
			Email:     res.User.Email,
			FirstName: res.User.FirstName,
			LastName:  res.User.LastName,
		},
	}, nil
}

func (s *Session) Identity() session.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Session) credentials() (string, session.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.done {
		return "", session.Identity{}, ErrLoggedOut
	}
	return s.token, s.identity, nil
}

// Logout ends the session on the server and forgets everything local even
// if the server call fails.
func (s *Session) Logout(ctx context.Context) error {
	token, _, err := s.credentials()
	if err != nil {
		return err
	}
	remoteErr := s.client.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)

	s.mu.Lock()
	s.token = ""
	s.identity = session.Identity{}
	s.done = true
	s.mu.Unlock()

	s.catalogMu.Lock()
	s.catalog = nil
	s.catalogMu.Unlock()

	return remoteErr
}

// Catalog is fetched on first use and kept for the rest of the session.
// Failures are not cached.
func (s *Session) Catalog(ctx context.Context) (leavetype.Catalog, error) {
	token, _, err := s.credentials()
	if err != nil {
		return leavetype.Catalog{}, err
	}

	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()
	if s.catalog != nil {
		return *s.catalog, nil
	}

	var list []leavetype.LeaveTypeResponse
	if err := s.client.do(ctx, http.MethodGet, "/leave/leave-types", token, nil, &list); err != nil {
		return leavetype.Catalog{}, err
	}
	types := make([]leavetype.LeaveType, len(list))
	for i, t := range list {
		types[i] = leavetype.LeaveType{Code: t.Code, Label: t.Label, MaxDaysPerYear: t.MaxDaysPerYear, SortOrder: i + 1}
	}
	catalog := leavetype.NewCatalog(types)
	s.catalog = &catalog
	return catalog, nil
}

// Apply validates locally and only then submits.
func (s *Session) Apply(ctx context.Context, req leave.ApplyLeaveRequest) (leave.ApplyLeaveResponse, error) {
	token, actor, err := s.credentials()
	if err != nil {
		return leave.ApplyLeaveResponse{}, err
	}
	if _, err := leave.Authorize(nil, leave.ActionApply, actor); err != nil {
		return leave.ApplyLeaveResponse{}, fromLocal(err)
	}

	catalog, err := s.Catalog(ctx)
	if err != nil {
		return leave.ApplyLeaveResponse{}, err
	}
	if res := leave.Validate(req.Candidate(), catalog, s.client.now()); !res.OK() {
		return leave.ApplyLeaveResponse{}, fromLocal(res.Err())
	}

	var out leave.ApplyLeaveResponse
	if err := s.client.do(ctx, http.MethodPost, "/leave/apply", token, req, &out); err != nil {
		return leave.ApplyLeaveResponse{}, err
	}
	return out, nil
}

func (s *Session) Approve(ctx context.Context, snapshot leave.LeaveResponse) (leave.LeaveResponse, error) {
	return s.Perform(ctx, leave.ActionApprove, snapshot)
}

func (s *Session) Decline(ctx context.Context, snapshot leave.LeaveResponse) (leave.LeaveResponse, error) {
	return s.Perform(ctx, leave.ActionDecline, snapshot)
}

func (s *Session) Cancel(ctx context.Context, snapshot leave.LeaveResponse) (leave.LeaveResponse, error) {
	return s.Perform(ctx, leave.ActionCancel, snapshot)
}

// Perform runs a transition on snapshot after checking it against the
// transition table, and returns the server's new snapshot.
func (s *Session) Perform(ctx context.Context, action leave.Action, snapshot leave.LeaveResponse) (leave.LeaveResponse, error) {
	token, actor, err := s.credentials()
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	current, err := toLeave(snapshot)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if _, err := leave.Authorize(current, action, actor); err != nil {
		return leave.LeaveResponse{}, fromLocal(err)
	}

	var (
		method = http.MethodPatch
		path   string
		body   any
	)
	switch action {
	case leave.ActionApprove:
		path = "/leave/requests/" + url.PathEscape(snapshot.ID) + "/approve"
	case leave.ActionDecline:
		path = "/leave/requests/" + url.PathEscape(snapshot.ID) + "/decline"
	case leave.ActionCancel:
		path = "/leave/cancel-leave"
		body = leave.CancelLeaveRequest{ID: snapshot.ID}
	default:
		return leave.LeaveResponse{}, fromLocal(leaveerrors.ErrUnknownAction)
	}

	var out leave.LeaveResponse
	if err := s.client.do(ctx, method, path, token, body, &out); err != nil {
		return leave.LeaveResponse{}, err
	}
	return out, nil
}

func (s *Session) History(ctx context.Context) ([]leave.LeaveResponse, error) {
	token, _, err := s.credentials()
	if err != nil {
		return nil, err
	}
	var out []leave.LeaveResponse
	err = s.client.do(ctx, http.MethodGet, "/leave/history", token, nil, &out)
	return out, err
}

func (s *Session) Balance(ctx context.Context, year int) ([]leave.BalanceResponse, error) {
	token, _, err := s.credentials()
	if err != nil {
		return nil, err
	}
	path := "/leave/balance"
	if year > 0 {
		path += "?year=" + strconv.Itoa(year)
	}
	var out []leave.BalanceResponse
	err = s.client.do(ctx, http.MethodGet, path, token, nil, &out)
	return out, err
}

func (s *Session) managerToken() (string, error) {
	token, actor, err := s.credentials()
	if err != nil {
		return "", err
	}
	if !actor.IsManager() {
		return "", fromLocal(leaveerrors.ErrManagerOnly)
	}
	return token, nil
}

func (s *Session) PendingRequests(ctx context.Context) ([]leave.LeaveResponse, error) {
	token, err := s.managerToken()
	if err != nil {
		return nil, err
	}
	var out []leave.LeaveResponse
	err = s.client.do(ctx, http.MethodGet, "/leave/requests", token, nil, &out)
	return out, err
}

func (s *Session) ManagerHistory(ctx context.Context) ([]leave.LeaveResponse, error) {
	token, err := s.managerToken()
	if err != nil {
		return nil, err
	}
	var out []leave.LeaveResponse
	err = s.client.do(ctx, http.MethodGet, "/leave/manager-history", token, nil, &out)
	return out, err
}

func (s *Session) Report(ctx context.Context) ([]leave.ReportRow, error) {
	token, err := s.managerToken()
	if err != nil {
		return nil, err
	}
	var out []leave.ReportRow
	err = s.client.do(ctx, http.MethodGet, "/leave/manager/report", token, nil, &out)
	return out, err
}

func (s *Session) Calendar(ctx context.Context, from, to string) (leave.CalendarResponse, error) {
	token, err := s.managerToken()
	if err != nil {
		return leave.CalendarResponse{}, err
	}
	q := url.Values{"from": {from}, "to": {to}}
	var out leave.CalendarResponse
	err = s.client.do(ctx, http.MethodGet, "/leave/calendar?"+q.Encode(), token, nil, &out)
	return out, err
}

// toLeave rebuilds the fields the transition table looks at.
func toLeave(r leave.LeaveResponse) (*leave.Leave, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fromLocal(leaveerrors.ErrInvalidLeaveID)
	}
	owner, err := uuid.Parse(r.EmployeeID)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("snapshot %s has employee id %q", r.ID, r.EmployeeID)}
	}
	status := leave.Status(r.Status)
	if !status.Valid() {
		return nil, &TransportError{Err: fmt.Errorf("snapshot %s has status %q", r.ID, r.Status)}
	}
	return &leave.Leave{ID: id, EmployeeID: owner, Status: status}, nil
}
