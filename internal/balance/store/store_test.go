package store_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tabungan/internal/balance"
	"github.com/MrJamesThe3rd/tabungan/internal/balance/store"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, mock
}

func TestStore_GetBalance(t *testing.T) {
	db, mock := setupMockDB(t)
	s := store.New(db)

	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT balance, updated_at FROM balances WHERE student_id = $1")).
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"balance", "updated_at"}).AddRow(int64(125000), now))

	got, err := s.GetBalance(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, &balance.Balance{StudentID: "S1", Balance: 125000, UpdatedAt: now}, got)
}

func TestStore_GetBalance_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	s := store.New(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM balances")).
		WithArgs("S1").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetBalance(context.Background(), "S1")
	assert.ErrorIs(t, err, balance.ErrNotFound)
}

func TestStore_SumApproved(t *testing.T) {
	db, mock := setupMockDB(t)
	s := store.New(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_id = $1 AND status = 'approved'")).
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(-5000)))

	got, err := s.SumApproved(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, int64(-5000), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
