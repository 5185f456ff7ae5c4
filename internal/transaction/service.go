package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tabungan/internal/balance"
	"github.com/MrJamesThe3rd/tabungan/internal/money"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)

	BeginApproval(ctx context.Context) (ApprovalTx, error)
	BeginBatch(ctx context.Context) (BatchTx, error)
}

// ApprovalTx is the atomic unit an approval runs in. Nothing it writes is
// visible to others until Commit, and Rollback discards all of it.
type ApprovalTx interface {
	// LockTransaction reads the current row and holds it until the unit ends.
	LockTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// LockBalance serializes all approvals of one student and returns the
	// stored balance, zero when there is none yet.
	LockBalance(ctx context.Context, studentID string) (int64, error)
	// MarkApproved fails with ErrAlreadyApproved unless the row is still pending.
	MarkApproved(ctx context.Context, id, approverID uuid.UUID) (time.Time, error)
	PutBalance(ctx context.Context, studentID string, amount int64) (time.Time, error)
	Commit() error
	Rollback() error
}

type BatchTx interface {
	CreateTransactions(ctx context.Context, txs []*Transaction) error
	Commit() error
	Rollback() error
}

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// BalanceRecorder is told about every committed balance.
type BalanceRecorder interface {
	Remember(ctx context.Context, b balance.Balance) error
}

// Notifier is told whenever the set of transactions changed.
type Notifier interface {
	TransactionsChanged(ctx context.Context) error
}

type Service struct {
	repo     Repository
	admins   AdminChecker
	balances BalanceRecorder
	notifier Notifier
	validate *validator.Validate
}

// NewService wires the transaction service. balances and notifier may be nil.
func NewService(repo Repository, admins AdminChecker, balances BalanceRecorder, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		admins:   admins,
		balances: balances,
		notifier: notifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type SubmitParams struct {
	StudentID   string `validate:"required"`
	Amount      int64  `validate:"gt=0"`
	Type        Type   `validate:"oneof=deposit withdrawal"`
	Note        string `validate:"max=500"`
	SubmittedBy uuid.UUID
}

type ListFilter struct {
	Status    *Status
	StudentID *string
	Limit     int
}

// Approval is the outcome of a committed approval.
type Approval struct {
	Transaction *Transaction
	Balance     balance.Balance
	Delta       int64
}

func (s *Service) check(p *SubmitParams) error {
	p.StudentID = strings.TrimSpace(p.StudentID)
	p.Note = strings.TrimSpace(p.Note)

	if err := s.validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if p.SubmittedBy == uuid.Nil {
		return fmt.Errorf("%w: missing submitter", ErrInvalid)
	}

	if p.Amount > money.MaxAmount {
		return fmt.Errorf("%w: amount above %s", ErrInvalid, money.Format(money.MaxAmount))
	}

	return nil
}

func newPending(p SubmitParams) *Transaction {
	return &Transaction{
		StudentID: p.StudentID,
		Amount:    p.Amount,
		Type:      p.Type,
		Note:      p.Note,
		Status:    StatusPending,
		CreatedBy: p.SubmittedBy,
	}
}

// Submit records a pending transaction. Balances are untouched until it is
// approved.
func (s *Service) Submit(ctx context.Context, params SubmitParams) (*Transaction, error) {
	if err := s.check(&params); err != nil {
		return nil, err
	}

	tx := newPending(params)
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, storeErr("creating transaction", err)
	}

	s.changed(ctx)

	return tx, nil
}

// SubmitBatch records all params as pending transactions or none of them.
func (s *Service) SubmitBatch(ctx context.Context, params []SubmitParams) ([]*Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	txs := make([]*Transaction, len(params))

	for i, p := range params {
		if err := s.check(&p); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		txs[i] = newPending(p)
	}

	btx, err := s.repo.BeginBatch(ctx)
	if err != nil {
		return nil, storeErr("begin batch", err)
	}
	defer btx.Rollback()

	if err := btx.CreateTransactions(ctx, txs); err != nil {
		return nil, storeErr("create transactions", err)
	}

	if err := btx.Commit(); err != nil {
		return nil, storeErr("commit batch", err)
	}

	s.changed(ctx)

	return txs, nil
}

// Approve applies a pending transaction to its student's balance. The
// transaction is re-read inside the unit, so a stale copy held by the caller
// can never be applied twice.
func (s *Service) Approve(ctx context.Context, id, approverID uuid.UUID) (*Approval, error) {
	ok, err := s.admins.IsAdmin(ctx, approverID)
	if err != nil {
		return nil, storeErr("checking approver", err)
	}

	if !ok {
		return nil, ErrForbidden
	}

	atx, err := s.repo.BeginApproval(ctx)
	if err != nil {
		return nil, storeErr("begin approval", err)
	}
	defer atx.Rollback()

	tx, err := atx.LockTransaction(ctx, id)
	if err != nil {
		return nil, storeErr("locking transaction", err)
	}

	if !tx.Pending() {
		return nil, ErrAlreadyApproved
	}

	current, err := atx.LockBalance(ctx, tx.StudentID)
	if err != nil {
		return nil, storeErr("locking balance", err)
	}

	delta := tx.Signed()

	next, ok := money.Add(current, delta)
	if !ok {
		return nil, fmt.Errorf("%w: student %s", ErrOverflow, tx.StudentID)
	}

	approvedAt, err := atx.MarkApproved(ctx, id, approverID)
	if err != nil {
		return nil, storeErr("marking approved", err)
	}

	updatedAt, err := atx.PutBalance(ctx, tx.StudentID, next)
	if err != nil {
		return nil, storeErr("writing balance", err)
	}

	if err := atx.Commit(); err != nil {
		return nil, storeErr("commit approval", err)
	}

	tx.Status = StatusApproved
	tx.ApprovedBy = &approverID
	tx.ApprovedAt = &approvedAt

	approval := &Approval{
		Transaction: tx,
		Balance: balance.Balance{
			StudentID: tx.StudentID,
			Balance:   next,
			UpdatedAt: updatedAt,
		},
		Delta: delta,
	}

	// The approval is durable from here on; failures below are only logged.
	ctx = context.WithoutCancel(ctx)

	if s.balances != nil {
		if err := s.balances.Remember(ctx, approval.Balance); err != nil {
			slog.Error("failed to refresh cached balance", "student_id", tx.StudentID, "error", err)
		}
	}

	s.changed(ctx)

	return approval, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, storeErr("getting transaction", err)
	}

	return tx, nil
}

// List returns transactions newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, *filter.Status)
	}

	if filter.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", ErrInvalid)
	}

	txs, err := s.repo.ListTransactions(ctx, filter)
	if err != nil {
		return nil, storeErr("listing transactions", err)
	}

	return txs, nil
}

func (s *Service) changed(ctx context.Context) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.TransactionsChanged(ctx); err != nil {
		slog.Error("failed to notify transaction feed", "error", err)
	}
}

func storeErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyApproved) {
		return err
	}

	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
