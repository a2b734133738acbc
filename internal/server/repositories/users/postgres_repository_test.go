package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	qInsertUser = `(?s)^\s*INSERT\s+INTO\s+users\s*\(username,\s*password_hash,\s*nickname,\s*email,\s*avatar_url,\s*role,\s*is_active\)\s*VALUES\s*\(\$1,.*\$7\)\s*RETURNING\s+id,\s*created_at,\s*updated_at\s*$`
	qByLogin    = `(?s)^SELECT\s+id,\s*username,\s*password_hash,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`
	qByID       = `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	qUpdate     = `(?s)^\s*UPDATE\s+users\s+SET\s+nickname\s*=\s*COALESCE\(\$2,\s*nickname\),\s*email\s*=\s*COALESCE\(\$3,\s*email\),\s*avatar_url\s*=\s*COALESCE\(\$4,\s*avatar_url\),\s*updated_at\s*=\s*\$5\s+WHERE\s+username\s*=\s*\$1\s+RETURNING\s+id,`
)

var userColumnNames = []string{"id", "username", "password_hash", "nickname", "email", "avatar_url", "role", "is_active", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func strPtr(s string) *string { return &s }

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(qInsertUser).
		WithArgs("alice", "hash", "alice", nil, nil, "user", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

	u := &models.User{Username: "alice", PasswordHash: "hash", Nickname: strPtr("alice"), Role: "user", IsActive: true}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, now, got.CreatedAt)
	assert.Equal(t, "alice", got.Username)
}

func TestCreate_Errors(t *testing.T) {
	t.Run("duplicate username", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(qInsertUser).WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err := repo.Create(context.Background(), &models.User{Username: "alice"})
		assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(qInsertUser).WillReturnError(errors.New("db down"))

		_, err := repo.Create(context.Background(), &models.User{Username: "alice"})
		require.Error(t, err)
		assert.Regexp(t, `db error: .*db down`, err.Error())
	})
}

func TestGetUserByLogin(t *testing.T) {
	now := time.Now().UTC()

	t.Run("found with nullable columns", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(qByLogin).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(userColumnNames).
				AddRow(int64(1), "alice", "hash", "Al", nil, "https://a/b.png", "admin", true, now, now))

		got, err := repo.GetUserByLogin(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
		require.NotNil(t, got.Nickname)
		assert.Equal(t, "Al", *got.Nickname)
		assert.Nil(t, got.Email)
		require.NotNil(t, got.AvatarURL)
		assert.Equal(t, "admin", got.Role)
		assert.True(t, got.IsActive)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(qByLogin).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetUserByLogin(context.Background(), "ghost")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(qByLogin).WithArgs("alice").WillReturnError(errors.New("db err"))

		_, err := repo.GetUserByLogin(context.Background(), "alice")
		require.Error(t, err)
		assert.Regexp(t, `db error: .*db err`, err.Error())
	})
}

func TestGetUserByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(qByID).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(userColumnNames).
			AddRow(int64(5), "bob", "hash", nil, nil, nil, "user", false, now, now))

	got, err := repo.GetUserByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)
	assert.False(t, got.IsActive)
	assert.Nil(t, got.Nickname)
}

func TestUpdateProfile(t *testing.T) {
	now := time.Now().UTC()

	t.Run("partial update", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(qUpdate).
			WithArgs("alice", "Neo", nil, nil, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(userColumnNames).
				AddRow(int64(1), "alice", "hash", "Neo", "a@example.com", nil, "user", true, now, now))

		got, err := repo.UpdateProfile(context.Background(), "alice", models.ProfileUpdate{Nickname: strPtr("Neo")})
		require.NoError(t, err)
		assert.Equal(t, "Neo", *got.Nickname)
		assert.Equal(t, "a@example.com", *got.Email)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(qUpdate).WillReturnError(sql.ErrNoRows)

		_, err := repo.UpdateProfile(context.Background(), "ghost", models.ProfileUpdate{Email: strPtr("x@y")})
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}
