package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/tabungan/internal/balance"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetBalance(ctx context.Context, studentID string) (*balance.Balance, error) {
	b := balance.Balance{StudentID: studentID}

	err := s.db.QueryRowContext(ctx,
		`SELECT balance, updated_at FROM balances WHERE student_id = $1`, studentID,
	).Scan(&b.Balance, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, balance.ErrNotFound
		}

		return nil, fmt.Errorf("getting balance: %w", err)
	}

	return &b, nil
}

func (s *Store) SumApproved(ctx context.Context, studentID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN type = 'deposit' THEN amount ELSE -amount END), 0)
		FROM transactions
		WHERE student_id = $1 AND status = 'approved'
	`

	var sum int64
	if err := s.db.QueryRowContext(ctx, query, studentID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("summing approved transactions: %w", err)
	}

	return sum, nil
}
