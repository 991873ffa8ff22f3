package rbac

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RolePermission grants Action on Resource to Role. Rows whose Resource is
// empty describe inheritance: Role inherits from Action.
type RolePermission struct {
	Role     string `gorm:"type:varchar(30);primaryKey"`
	Resource string `gorm:"type:varchar(50);primaryKey"`
	Action   string `gorm:"type:varchar(50);primaryKey"`
}

const (
	ResourceLeave     = "leave"
	ResourceLeaveType = "leave_type"
	ResourceRBAC      = "rbac"

	ActionApply   = "apply"
	ActionReadOwn = "read_own"
	ActionCancel  = "cancel"
	ActionRead    = "read"
	ActionReview  = "review"
	ActionReport  = "report"
)

// DefaultPolicy is seeded when the table is empty.
var DefaultPolicy = []RolePermission{
	{Role: "employee", Resource: ResourceLeave, Action: ActionApply},
	{Role: "employee", Resource: ResourceLeave, Action: ActionReadOwn},
	{Role: "employee", Resource: ResourceLeave, Action: ActionCancel},
	{Role: "employee", Resource: ResourceLeaveType, Action: ActionRead},
	{Role: "employee", Resource: ResourceRBAC, Action: ActionRead},
	{Role: "manager", Resource: ResourceLeave, Action: ActionReview},
	{Role: "manager", Resource: ResourceLeave, Action: ActionReport},
	{Role: "manager", Resource: "", Action: "employee"},
}

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	ListRolePermissions(ctx context.Context) ([]RolePermission, error)
	SeedDefaults(ctx context.Context, rows []RolePermission) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListRolePermissions(ctx context.Context) ([]RolePermission, error) {
	var rows []RolePermission
	err := r.db.WithContext(ctx).
		Order("role, resource, action").
		Find(&rows).Error
	return rows, err
}

func (r *repository) SeedDefaults(ctx context.Context, rows []RolePermission) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}
