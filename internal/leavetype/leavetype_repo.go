package leavetype

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=leavetype_repo.go -destination=mock/leavetype_repo_mock.go -package=mock
type Repository interface {
	FindAll(ctx context.Context) ([]LeaveType, error)
	SeedDefaults(ctx context.Context, types []LeaveType) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindAll(ctx context.Context) ([]LeaveType, error) {
	var types []LeaveType
	err := r.db.WithContext(ctx).
		Order("sort_order ASC, code ASC").
		Find(&types).Error
	return types, err
}

// SeedDefaults inserts types that are missing and leaves existing rows alone,
// so allowances edited by an administrator survive a restart.
func (r *repository) SeedDefaults(ctx context.Context, types []LeaveType) error {
	if len(types) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&types).Error
}
