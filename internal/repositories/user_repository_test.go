package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
)

var userCols = []string{
	"id", "username", "password_hash", "full_name", "email", "telegram_chat_id",
	"role", "department", "manager_id", "is_active", "created_at",
}

func TestUserCreateStoresPrivilegesInTx(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	u := &models.User{
		Username:     "newbie",
		PasswordHash: "hash",
		FullName:     "New Bie",
		Role:         models.RoleStaff,
		Department:   "ops",
		IsActive:     true,
		Privileges:   []string{models.PrivilegeExportReports},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("newbie", "hash", "New Bie", "", int64(0), "staff", "ops", nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), created))
	mock.ExpectExec(`INSERT INTO user_privileges`).
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, created, u.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateWithoutPrivileges(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(8), time.Now()))
	mock.ExpectCommit()

	require.NoError(t, NewUserRepository(db).Create(context.Background(), &models.User{Username: "plain", Role: models.RoleStaff}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateRollsBackOnPrivilegeFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Now()))
	mock.ExpectExec(`INSERT INTO user_privileges`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := NewUserRepository(db).Create(context.Background(), &models.User{
		Username:   "newbie",
		Role:       models.RoleStaff,
		Privileges: []string{models.PrivilegeExportReports},
	})
	assert.ErrorContains(t, err, "insert privileges: boom")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSetPrivileges(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM user_privileges WHERE user_id=\$1`).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO user_privileges`).WithArgs(int64(3), sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.SetPrivileges(ctx, 3, []string{models.PrivilegeExportReports}))

	// An empty set only clears.
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM user_privileges WHERE user_id=\$1`).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.SetPrivileges(ctx, 3, nil))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM user_privileges`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO user_privileges`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()
	err := repo.SetPrivileges(ctx, 3, []string{models.PrivilegeExportReports})
	assert.ErrorContains(t, err, "insert privileges: boom")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserListAllAttachesPrivileges(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM users ORDER BY username`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(1), "admin", "h", "Admin", "", int64(0), "admin", "Administration", nil, true, created).
			AddRow(int64(2), "lead", "h", "Lead", "lead@example.com", int64(42), "department_head", "ops", int64(1), true, created))
	mock.ExpectQuery(`FROM user_privileges up JOIN privileges p`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "code"}).
			AddRow(int64(2), models.PrivilegeExportReports).
			AddRow(int64(99), models.PrivilegeExportReports))

	users, err := NewUserRepository(db).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Empty(t, users[0].Privileges)
	assert.Nil(t, users[0].ManagerID)
	assert.Equal(t, []string{models.PrivilegeExportReports}, users[1].Privileges)
	require.NotNil(t, users[1].ManagerID)
	assert.Equal(t, int64(1), *users[1].ManagerID)
	assert.Equal(t, models.RoleDepartmentHead, users[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByIDLoadsPrivileges(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(2), "lead", "h", "Lead", "", int64(0), "department_head", "ops", nil, true, time.Now()))
	mock.ExpectQuery(`WHERE up.user_id = \$1`).WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow(models.PrivilegeExportReports))

	u, err := NewUserRepository(db).GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{models.PrivilegeExportReports}, u.Privileges)

	mock.ExpectQuery(`FROM users WHERE username = \$1`).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userCols))
	_, err = NewUserRepository(db).GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserUpdatesReportMissingRows(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	manager := int64(2)

	mock.ExpectExec(`UPDATE users SET manager_id=\$1 WHERE id=\$2`).WithArgs(manager, int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateManager(context.Background(), 9, &manager), ErrNotFound)

	mock.ExpectExec(`UPDATE users SET is_active=\$1 WHERE id=\$2`).WithArgs(false, int64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.SetActive(context.Background(), 4, false))
	assert.NoError(t, mock.ExpectationsWereMet())
}
