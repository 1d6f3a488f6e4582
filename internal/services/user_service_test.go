package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/models"
)

func newUserFixture(users ...models.User) (*fakeUsers, UserService) {
	repo := newFakeUsers(users...)
	auth := NewAuthService(repo, "0123456789abcdef0123", time.Hour, nil)
	return repo, NewUserService(repo, auth, testLog())
}

func TestCreateUser(t *testing.T) {
	repo, svc := newUserFixture(orgUsers()...)
	ctx := context.Background()

	u, err := svc.Create(ctx, NewUserInput{
		Username:   " newbie ",
		Password:   "s3cret!",
		Department: "ops",
		ManagerID:  ptr(int64(3)),
		Privileges: []string{models.PrivilegeExportReports, models.PrivilegeExportReports},
	})
	require.NoError(t, err)
	assert.Equal(t, "newbie", u.Username)
	assert.Equal(t, models.RoleStaff, u.Role)
	assert.True(t, u.IsActive)
	assert.Equal(t, []string{models.PrivilegeExportReports}, u.Privileges)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret!")))

	stored, err := repo.GetByUsername(ctx, "newbie")
	require.NoError(t, err)
	assert.Equal(t, int64(3), *stored.ManagerID)
}

func TestCreateUserRejects(t *testing.T) {
	_, svc := newUserFixture(orgUsers()...)
	ctx := context.Background()

	for name, in := range map[string]NewUserInput{
		"taken username":    {Username: "lead", Password: "x"},
		"unknown role":      {Username: "a", Password: "x", Role: "owner"},
		"unknown manager":   {Username: "b", Password: "x", ManagerID: ptr(int64(77))},
		"unknown privilege": {Username: "c", Password: "x", Privileges: []string{"root"}},
		"bad email":         {Username: "d", Password: "x", Email: "not-an-email"},
		"named address":     {Username: "f", Password: "x", Email: "Bob Smith <bob@example.com>"},
		"blank password":    {Username: "e", Password: "  "},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSetManager(t *testing.T) {
	repo, svc := newUserFixture(orgUsers()...)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SetManager(ctx, 3, ptr(int64(3))), ErrValidation)
	assert.ErrorIs(t, svc.SetManager(ctx, 2, ptr(int64(4))), ErrValidation, "4 already reports to 2")
	assert.ErrorIs(t, svc.SetManager(ctx, 2, ptr(int64(99))), ErrValidation)
	assert.ErrorIs(t, svc.SetManager(ctx, 99, nil), ErrNotFound)

	require.NoError(t, svc.SetManager(ctx, 5, ptr(int64(2))))
	assert.Equal(t, int64(2), *actor(repo, 5).ManagerID)
	require.NoError(t, svc.SetManager(ctx, 5, nil))
	assert.Nil(t, actor(repo, 5).ManagerID)
}

func TestSetActive(t *testing.T) {
	repo, svc := newUserFixture(orgUsers()...)
	ctx := context.Background()
	admin := actor(repo, 1)

	assert.ErrorIs(t, svc.SetActive(ctx, admin, 1, false), ErrValidation)
	require.NoError(t, svc.SetActive(ctx, admin, 4, false))
	assert.False(t, actor(repo, 4).IsActive)
	assert.ErrorIs(t, svc.SetActive(ctx, admin, 404, true), ErrNotFound)
}

func TestAssignable(t *testing.T) {
	repo, svc := newUserFixture(orgUsers()...)
	ctx := context.Background()

	names := func(users []models.User) []string {
		var out []string
		for _, u := range users {
			out = append(out, u.Username)
		}
		return out
	}

	got, err := svc.Assignable(ctx, actor(repo, 2))
	require.NoError(t, err)
	assert.Equal(t, []string{"head", "lead", "staff"}, names(got), "inactive subordinate left out")

	got, err = svc.Assignable(ctx, actor(repo, 5))
	require.NoError(t, err)
	assert.Equal(t, []string{"peer"}, names(got))

	got, err = svc.Assignable(ctx, actor(repo, 1))
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestCycleMembers(t *testing.T) {
	users := append(orgUsers(),
		models.User{ID: 7, Username: "x", ManagerID: ptr(int64(8)), IsActive: true},
		models.User{ID: 8, Username: "y", ManagerID: ptr(int64(7)), IsActive: true},
	)
	_, svc := newUserFixture(users...)
	got, err := svc.CycleMembers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8}, got)
}
