package leave

import (
	"slices"

	leaveerrors "leave-portal/internal/leave/errors"
	"leave-portal/internal/session"
)

type Action string

const (
	ActionApply   Action = "apply"
	ActionApprove Action = "approve"
	ActionDecline Action = "decline"
	ActionCancel  Action = "cancel"
)

// Transition is one row of the lifecycle table. From is empty for apply,
// which has no prior state.
type Transition struct {
	From      Status
	Action    Action
	Roles     []session.Role
	OwnerOnly bool
	To        Status
}

var anyRole = []session.Role{session.RoleEmployee, session.RoleManager}

var transitions = []Transition{
	{From: "", Action: ActionApply, Roles: anyRole, To: StatusPending},
	{From: StatusPending, Action: ActionApprove, Roles: []session.Role{session.RoleManager}, To: StatusApproved},
	{From: StatusPending, Action: ActionDecline, Roles: []session.Role{session.RoleManager}, To: StatusRejected},
	{From: StatusPending, Action: ActionCancel, Roles: anyRole, OwnerOnly: true, To: StatusCancelled},
	{From: StatusApproved, Action: ActionCancel, Roles: anyRole, OwnerOnly: true, To: StatusCancelled},
}

// Transitions returns a copy of the lifecycle table.
func Transitions() []Transition {
	out := make([]Transition, len(transitions))
	copy(out, transitions)
	return out
}

func ParseAction(v string) (Action, bool) {
	a := Action(v)
	for _, t := range transitions {
		if t.Action == a {
			return a, true
		}
	}
	return "", false
}

// Authorize decides whether actor may perform action on snapshot and returns
// the resulting status. snapshot is nil for apply. It never touches storage;
// callers persist the result with a conditional update on snapshot.Status.
func Authorize(snapshot *Leave, action Action, actor session.Identity) (Status, error) {
	rows := rowsFor(action)
	if len(rows) == 0 {
		return "", leaveerrors.ErrUnknownAction
	}
	if !slices.Contains(rows[0].Roles, actor.Role) {
		return "", leaveerrors.ErrRoleNotAllowed
	}

	var from Status
	if snapshot != nil {
		from = snapshot.Status
		if rows[0].OwnerOnly && !snapshot.OwnedBy(actor.UserID) {
			return "", leaveerrors.ErrNotOwner
		}
	}

	for _, t := range rows {
		if t.From == from {
			return t.To, nil
		}
	}
	return "", leaveerrors.ErrInvalidStatusTransition
}

// Allowed reports whether Authorize would succeed. Used to decide which
// actions to offer for a row.
func Allowed(snapshot *Leave, action Action, actor session.Identity) bool {
	_, err := Authorize(snapshot, action, actor)
	return err == nil
}

func rowsFor(action Action) []Transition {
	var rows []Transition
	for _, t := range transitions {
		if t.Action == action {
			rows = append(rows, t)
		}
	}
	return rows
}
