package leaveclient

import (
	"context"
	"errors"
	"sync"

	"leave-portal/internal/leave"
)

// ErrSuperseded is returned by a refresh whose result arrived after a newer
// refresh or action on the same view.
var ErrSuperseded = errors.New("leaveclient: result superseded by a newer one")

type ViewKind int

const (
	ViewHistory ViewKind = iota
	ViewPending
	ViewManagerHistory
)

// View is one screen's list of requests. Rows only change on server
// confirmed data, and anything that resolves after Close is dropped.
type View struct {
	session *Session
	kind    ViewKind

	mu         sync.Mutex
	rows       []leave.LeaveResponse
	generation uint64
	closed     bool
	inflight   map[string]struct{}
}

func (s *Session) OpenView(kind ViewKind) *View {
	return &View{session: s, kind: kind, inflight: map[string]struct{}{}}
}

func (v *View) load(ctx context.Context) ([]leave.LeaveResponse, error) {
	switch v.kind {
	case ViewPending:
		return v.session.PendingRequests(ctx)
	case ViewManagerHistory:
		return v.session.ManagerHistory(ctx)
	default:
		return v.session.History(ctx)
	}
}

func (v *View) Refresh(ctx context.Context) ([]leave.LeaveResponse, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, ErrViewClosed
	}
	v.generation++
	gen := v.generation
	v.mu.Unlock()

	rows, err := v.load(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, ErrViewClosed
	}
	if err != nil {
		return nil, err
	}
	if gen != v.generation {
		return nil, ErrSuperseded
	}
	v.rows = rows
	return v.copyRows(), nil
}

func (v *View) Rows() []leave.LeaveResponse {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.copyRows()
}

func (v *View) copyRows() []leave.LeaveResponse {
	out := make([]leave.LeaveResponse, len(v.rows))
	copy(out, v.rows)
	return out
}

// Perform runs action on the row with id. One action per row may be in
// flight. On failure the rows are left as they were.
func (v *View) Perform(ctx context.Context, action leave.Action, id string) (leave.LeaveResponse, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return leave.LeaveResponse{}, ErrViewClosed
	}
	idx := v.indexOf(id)
	if idx < 0 {
		v.mu.Unlock()
		return leave.LeaveResponse{}, ErrNotInView
	}
	if _, busy := v.inflight[id]; busy {
		v.mu.Unlock()
		return leave.LeaveResponse{}, ErrActionInFlight
	}
	v.inflight[id] = struct{}{}
	snapshot := v.rows[idx]
	v.mu.Unlock()

	res, err := v.session.Perform(ctx, action, snapshot)

	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.inflight, id)
	if v.closed {
		return leave.LeaveResponse{}, ErrViewClosed
	}
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	// Refreshes started before this point may carry the old status.
	v.generation++
	if idx = v.indexOf(id); idx >= 0 {
		if v.kind == ViewPending && res.Status != string(leave.StatusPending) {
			v.rows = append(v.rows[:idx:idx], v.rows[idx+1:]...)
		} else {
			v.rows[idx] = res
		}
	}
	return res, nil
}

func (v *View) indexOf(id string) int {
	for i, r := range v.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Close deactivates the view. Calls still in flight finish but their
// results are discarded.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.rows = nil
}
