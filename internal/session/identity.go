// Package session holds the authenticated actor for the lifetime of a login.
//
// An Identity is created when a token is issued, read by every component that
// gates an action on the actor's role, and dropped as a whole on logout.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

var ErrNoIdentity = errors.New("no identity in context")

type Identity struct {
	UserID    uuid.UUID
	Role      Role
	Email     string
	FirstName string
	LastName  string
	TokenID   string
}

func ParseRole(v string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(v))) {
	case RoleEmployee:
		return RoleEmployee, true
	case RoleManager:
		return RoleManager, true
	default:
		return "", false
	}
}

func RoleFor(isManager bool) Role {
	if isManager {
		return RoleManager
	}
	return RoleEmployee
}

func (i Identity) IsManager() bool { return i.Role == RoleManager }

func (i Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, error) {
	if ctx == nil {
		return Identity{}, ErrNoIdentity
	}
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok || id.UserID == uuid.Nil {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}
