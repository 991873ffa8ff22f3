package leave

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatusChange moves one request from From to To. DecidedBy is set only for
// manager decisions; a cancel keeps the previous decider.
type StatusChange struct {
	ID        string
	From      Status
	To        Status
	DecidedBy *uuid.UUID
	At        time.Time
}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *Leave) error
	FindByID(ctx context.Context, id string) (*Leave, error)
	LockEmployee(ctx context.Context, employeeID string) error
	FindByEmployee(ctx context.Context, employeeID string) ([]Leave, error)
	FindByStatus(ctx context.Context, status Status) ([]Leave, error)
	FindAll(ctx context.Context) ([]Leave, error)
	FindInRange(ctx context.Context, from, to time.Time) ([]Leave, error)
	UpdateStatus(ctx context.Context, change StatusChange) (bool, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn runs statements on the caller's transaction when one is bound.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db = db.Session(&gorm.Session{})
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) withEmployeeName(ctx context.Context) *gorm.DB {
	return r.conn(ctx).
		Model(&Leave{}).
		Select("leaves.*, TRIM(COALESCE(users.first_name, '') || ' ' || COALESCE(users.last_name, '')) AS employee_name").
		Joins("LEFT JOIN users ON users.id = leaves.employee_id")
}

func (r *repository) Create(ctx context.Context, l *Leave) error {
	return r.conn(ctx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Leave, error) {
	var l Leave
	err := r.withEmployeeName(ctx).
		Where("leaves.id = ?", id).
		Take(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// LockEmployee takes a row lock on the employee's user record for the rest of
// the bound transaction. Applies hold it across the allowance check and the
// insert, so concurrent applies by one employee run one after another.
func (r *repository) LockEmployee(ctx context.Context, employeeID string) error {
	var ids []string
	return r.conn(ctx).
		Table("users").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", employeeID).
		Pluck("id", &ids).Error
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID string) ([]Leave, error) {
	var leaves []Leave
	err := r.withEmployeeName(ctx).
		Where("leaves.employee_id = ?", employeeID).
		Order("leaves.created_at DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindByStatus(ctx context.Context, status Status) ([]Leave, error) {
	var leaves []Leave
	err := r.withEmployeeName(ctx).
		Where("leaves.status = ?", status).
		Order("leaves.created_at ASC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindAll(ctx context.Context) ([]Leave, error) {
	var leaves []Leave
	err := r.withEmployeeName(ctx).
		Order("leaves.created_at DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindInRange(ctx context.Context, from, to time.Time) ([]Leave, error) {
	var leaves []Leave
	err := r.withEmployeeName(ctx).
		Where("leaves.status <> ?", StatusCancelled).
		Where("leaves.start_date <= ? AND leaves.end_date >= ?", to, from).
		Order("leaves.start_date ASC").
		Find(&leaves).Error
	return leaves, err
}

// UpdateStatus applies change only if the row is still in change.From.
// It returns false when another writer got there first.
func (r *repository) UpdateStatus(ctx context.Context, change StatusChange) (bool, error) {
	values := map[string]any{
		"status":     change.To,
		"updated_at": change.At,
	}
	if change.DecidedBy != nil {
		values["decided_by"] = *change.DecidedBy
		values["decided_at"] = change.At
	}

	res := r.conn(ctx).
		Model(&Leave{}).
		Where("id = ? AND status = ?", change.ID, change.From).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
