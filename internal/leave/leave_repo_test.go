package leave_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"leave-portal/internal/leave"
)

func setupLeaveRepoTest(t *testing.T) (leave.Repository, sqlmock.Sqlmock, func() error) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)
	return leave.NewRepository(gormDB).WithTx(tx), mock, tx.Commit
}

func TestLeaveRepository_LockEmployee(t *testing.T) {
	repo, mock, commit := setupLeaveRepoTest(t)
	employeeID := uuid.NewString()

	mock.ExpectQuery(`SELECT .*FROM "users" WHERE id = \$1 FOR UPDATE`).
		WithArgs(employeeID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(employeeID))
	mock.ExpectCommit()

	assert.NoError(t, repo.LockEmployee(context.Background(), employeeID))
	assert.NoError(t, commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepository_UpdateStatusIsConditional(t *testing.T) {
	repo, mock, commit := setupLeaveRepoTest(t)
	id := uuid.NewString()

	mock.ExpectExec(`UPDATE "leaves" SET .* WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := repo.UpdateStatus(context.Background(), leave.StatusChange{
		ID: id, From: leave.StatusPending, To: leave.StatusApproved, At: serviceNow,
	})
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
