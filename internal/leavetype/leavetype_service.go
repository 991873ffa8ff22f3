package leavetype

import (
	"context"
	"encoding/json"
	"time"

	leavetypeerrors "leave-portal/internal/leavetype/errors"
	"leave-portal/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	CatalogCacheKey = "leave:catalog"
	catalogCacheTTL = time.Hour
)

type Service interface {
	List(ctx context.Context) ([]LeaveTypeResponse, error)
	Catalog(ctx context.Context) (Catalog, error)
	Seed(ctx context.Context) error
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavetype.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavetype.service")
	}
	return &service{repo: repo, rdb: rdb, sf: &singleflight.Group{}, logger: l}
}

func (s *service) List(ctx context.Context) ([]LeaveTypeResponse, error) {
	// 1. Redis
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, CatalogCacheKey).Result(); err == nil {
			var resp []LeaveTypeResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				observability.LeaveCatalogCache.WithLabelValues("hit").Inc()
				return resp, nil
			}
		}
		observability.LeaveCatalogCache.WithLabelValues("miss").Inc()
	}

	// 2. Singleflight, every apply form reads the same catalog
	v, err, _ := s.sf.Do(CatalogCacheKey, func() (interface{}, error) {
		types, err := s.repo.FindAll(ctx)
		if err != nil {
			s.logger.Error("load leave catalog failed", zap.Error(err))
			return nil, leavetypeerrors.ErrCatalogUnavailable
		}

		resp := mapToListResponse(types)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, CatalogCacheKey, string(jsonData), catalogCacheTTL).Err(); err != nil {
					s.logger.Warn("cache leave catalog failed", zap.Error(err))
				}
			}
		}

		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]LeaveTypeResponse), nil
}

func (s *service) Catalog(ctx context.Context) (Catalog, error) {
	list, err := s.List(ctx)
	if err != nil {
		return Catalog{}, err
	}
	if len(list) == 0 {
		return Catalog{}, leavetypeerrors.ErrCatalogEmpty
	}

	types := make([]LeaveType, len(list))
	for i, r := range list {
		types[i] = LeaveType{Code: r.Code, Label: r.Label, MaxDaysPerYear: r.MaxDaysPerYear, SortOrder: i + 1}
	}
	return NewCatalog(types), nil
}

func (s *service) Seed(ctx context.Context) error {
	if err := s.repo.SeedDefaults(ctx, DefaultLeaveTypes); err != nil {
		s.logger.Error("seed leave catalog failed", zap.Error(err))
		return err
	}

	if s.rdb != nil {
		if err := s.rdb.Del(ctx, CatalogCacheKey).Err(); err != nil {
			s.logger.Warn("failed to invalidate leave catalog cache",
				zap.Error(err),
				zap.String("key", CatalogCacheKey),
			)
		}
	}
	s.logger.Info("leave catalog seeded", zap.Int("defaults", len(DefaultLeaveTypes)))
	return nil
}

func mapToResponse(t LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		Code:           t.Code,
		Label:          t.Label,
		MaxDaysPerYear: t.MaxDaysPerYear,
	}
}

func mapToListResponse(types []LeaveType) []LeaveTypeResponse {
	resp := make([]LeaveTypeResponse, len(types))
	for i, t := range types {
		resp[i] = mapToResponse(t)
	}
	return resp
}
