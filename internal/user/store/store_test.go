package store_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tabungan/internal/user"
	"github.com/MrJamesThe3rd/tabungan/internal/user/store"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, mock
}

var userColumns = []string{"id", "email", "role", "password_hash", "created_at"}

func TestStore_CreateUser(t *testing.T) {
	db, mock := setupMockDB(t)
	s := store.New(db)

	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("budi@example.com", user.RoleStudent, "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id.String(), now))

	u := &user.User{Email: "budi@example.com", Role: user.RoleStudent, PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(context.Background(), u))

	assert.Equal(t, id, u.ID)
	assert.Equal(t, now, u.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateUser_Duplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	s := store.New(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := s.CreateUser(context.Background(), &user.User{Email: "budi@example.com"})
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestStore_GetUser(t *testing.T) {
	db, mock := setupMockDB(t)
	s := store.New(db)

	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, role, password_hash, created_at FROM users WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(id.String(), "admin@example.com", "admin", "hash", time.Now()))

	u, err := s.GetUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)
	assert.True(t, u.IsAdmin())
}

func TestStore_GetUser_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	s := store.New(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestStore_GetUserByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	s := store.New(db)

	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("budi@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(id.String(), "budi@example.com", "student", "hash", time.Now()))

	u, err := s.GetUserByEmail(context.Background(), "budi@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, user.RoleStudent, u.Role)
}
