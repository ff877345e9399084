package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/temaribet/lms/pkg/errors"
)

func newRoleTestFixture(t *testing.T) (*RoleRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewRoleRepository(mock)
	return repo, mock
}

func roleColumns() []string {
	return []string{"id", "name", "permissions", "created_at", "updated_at"}
}

func TestRoleRepository_GetByName_Success(t *testing.T) {
	repo, mock := newRoleTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM roles WHERE name =").
		WithArgs("staff").
		WillReturnRows(pgxmock.NewRows(roleColumns()).
			AddRow("role-1", "staff", []string{"courses:read"}, now, now))

	role, err := repo.GetByName(context.Background(), "staff")
	require.NoError(t, err)
	assert.Equal(t, "role-1", role.ID)
	assert.Equal(t, []string{"courses:read"}, role.Permissions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepository_GetByName_NotFound(t *testing.T) {
	repo, mock := newRoleTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM roles WHERE name =").
		WithArgs("nonexistent").
		WillReturnRows(pgxmock.NewRows(roleColumns()))

	_, err := repo.GetByName(context.Background(), "nonexistent")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "expected ErrNotFound, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepository_List_Success(t *testing.T) {
	repo, mock := newRoleTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM roles ORDER BY name").
		WillReturnRows(pgxmock.NewRows(roleColumns()).
			AddRow("role-2", "admin", []string{"courses:manage"}, now, now).
			AddRow("role-1", "staff", []string{"courses:read"}, now, now))

	roles, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "admin", roles[0].Name)
	assert.Equal(t, "staff", roles[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
