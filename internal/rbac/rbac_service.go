package rbac

import (
	"context"
	"sort"
	"sync"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	LoadPolicy(ctx context.Context) error
	Enforce(req EnforceRequest) (bool, error)
	Permissions(role string) ([]PermissionResponse, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   *zap.Logger
}

func NewService(repo Repository, enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{repo: repo, enforcer: enforcer, logger: l}
}

// LoadPolicy replaces the enforcer policy with the stored one, seeding the
// defaults first when nothing is stored.
func (s *service) LoadPolicy(ctx context.Context) error {
	rows, err := s.repo.ListRolePermissions(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		if err := s.repo.SeedDefaults(ctx, DefaultPolicy); err != nil {
			return err
		}
		rows = DefaultPolicy
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.enforcer.ClearPolicy()
	var grants, inherits int
	for _, rp := range rows {
		if rp.Resource == "" {
			if _, err := s.enforcer.AddGroupingPolicy(rp.Role, rp.Action); err != nil {
				return err
			}
			inherits++
			continue
		}
		if _, err := s.enforcer.AddPolicy(rp.Role, rp.Resource, rp.Action); err != nil {
			return err
		}
		grants++
	}
	s.logger.Info("rbac policy loaded", zap.Int("grants", grants), zap.Int("inherits", inherits))
	return nil
}

func (s *service) Enforce(req EnforceRequest) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(req.Role, req.Resource, req.Action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("role", req.Role),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("role", req.Role),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

func (s *service) Permissions(role string) ([]PermissionResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	perms, err := s.enforcer.GetImplicitPermissionsForUser(role)
	if err != nil {
		return nil, err
	}
	out := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		if len(p) < 3 {
			continue
		}
		out = append(out, PermissionResponse{Resource: p[1], Action: p[2]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Resource != out[j].Resource {
			return out[i].Resource < out[j].Resource
		}
		return out[i].Action < out[j].Action
	})
	return out, nil
}
