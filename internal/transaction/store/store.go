package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanTransaction reads a transaction row in selectTransactionColumns order.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var typeStr, statusStr string

	if err := s.Scan(
		&tx.ID, &tx.StudentID, &tx.Amount, &typeStr, &tx.Note, &statusStr,
		&tx.CreatedAt, &tx.CreatedBy, &tx.ApprovedBy, &tx.ApprovedAt,
	); err != nil {
		return nil, err
	}

	tx.Type = transaction.Type(typeStr)
	tx.Status = transaction.Status(statusStr)

	return &tx, nil
}

const selectTransactionColumns = `
	id, student_id, amount, type, note, status, created_at, created_by, approved_by, approved_at
`

const insertTransaction = `
	INSERT INTO transactions (student_id, amount, type, note, status, created_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW())
	RETURNING id, created_at
`

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insert(ctx context.Context, q queryRower, tx *transaction.Transaction) error {
	return q.QueryRowContext(ctx, insertTransaction,
		tx.StudentID,
		tx.Amount,
		tx.Type,
		tx.Note,
		tx.Status,
		tx.CreatedBy,
	).Scan(&tx.ID, &tx.CreatedAt)
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	if err := insert(ctx, s.db, tx); err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.StudentID != nil {
		query += fmt.Sprintf(" AND student_id = $%d", argIdx)

		args = append(args, *filter.StudentID)
		argIdx++
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return txs, nil
}

// balanceLockKey maps a student to the advisory lock that serializes every
// balance change for that student, including the first one when no balance
// row exists yet to lock.
func balanceLockKey(studentID string) int64 {
	h := fnv.New64a()
	h.Write([]byte("balance"))
	h.Write([]byte{0})
	h.Write([]byte(studentID))

	return int64(h.Sum64())
}

type approvalTx struct {
	tx *sql.Tx
}

func (s *Store) BeginApproval(ctx context.Context) (transaction.ApprovalTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning approval tx: %w", err)
	}

	return &approvalTx{tx: dbTx}, nil
}

func (atx *approvalTx) Commit() error   { return atx.tx.Commit() }
func (atx *approvalTx) Rollback() error { return atx.tx.Rollback() }

func (atx *approvalTx) LockTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

	tx, err := scanTransaction(atx.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("locking transaction: %w", err)
	}

	return tx, nil
}

func (atx *approvalTx) LockBalance(ctx context.Context, studentID string) (int64, error) {
	if _, err := atx.tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", balanceLockKey(studentID)); err != nil {
		return 0, fmt.Errorf("acquiring balance lock: %w", err)
	}

	var amount int64

	err := atx.tx.QueryRowContext(ctx,
		`SELECT balance FROM balances WHERE student_id = $1 FOR UPDATE`, studentID,
	).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("reading balance: %w", err)
	}

	return amount, nil
}

func (atx *approvalTx) MarkApproved(ctx context.Context, id, approverID uuid.UUID) (time.Time, error) {
	query := `
		UPDATE transactions
		SET status = 'approved', approved_by = $1, approved_at = NOW()
		WHERE id = $2 AND status = 'pending'
		RETURNING approved_at
	`

	var approvedAt time.Time
	if err := atx.tx.QueryRowContext(ctx, query, approverID, id).Scan(&approvedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, transaction.ErrAlreadyApproved
		}

		return time.Time{}, fmt.Errorf("marking transaction approved: %w", err)
	}

	return approvedAt, nil
}

// PutBalance stamps the row with clock_timestamp(), not the transaction start
// time, so updated_at grows with every approval serialized behind LockBalance.
func (atx *approvalTx) PutBalance(ctx context.Context, studentID string, amount int64) (time.Time, error) {
	query := `
		INSERT INTO balances (student_id, balance, updated_at)
		VALUES ($1, $2, clock_timestamp())
		ON CONFLICT (student_id) DO UPDATE
		SET balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`

	var updatedAt time.Time
	if err := atx.tx.QueryRowContext(ctx, query, studentID, amount).Scan(&updatedAt); err != nil {
		return time.Time{}, fmt.Errorf("writing balance: %w", err)
	}

	return updatedAt, nil
}

type batchTx struct {
	tx *sql.Tx
}

func (s *Store) BeginBatch(ctx context.Context) (transaction.BatchTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning batch tx: %w", err)
	}

	return &batchTx{tx: dbTx}, nil
}

func (btx *batchTx) Commit() error   { return btx.tx.Commit() }
func (btx *batchTx) Rollback() error { return btx.tx.Rollback() }

func (btx *batchTx) CreateTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	for _, tx := range txs {
		if err := insert(ctx, btx.tx, tx); err != nil {
			return fmt.Errorf("creating transaction: %w", err)
		}
	}

	return nil
}
