package transaction_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

// memRepo serializes approval units behind one mutex, the way row and
// advisory locks serialize them in Postgres.
type memRepo struct {
	unit     sync.Mutex
	txs      map[uuid.UUID]transaction.Transaction
	balances map[string]int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		txs:      make(map[uuid.UUID]transaction.Transaction),
		balances: make(map[string]int64),
	}
}

func (r *memRepo) CreateTransaction(_ context.Context, tx *transaction.Transaction) error {
	r.unit.Lock()
	defer r.unit.Unlock()

	tx.ID = uuid.New()
	tx.CreatedAt = time.Now()
	r.txs[tx.ID] = *tx

	return nil
}

func (r *memRepo) GetTransaction(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	r.unit.Lock()
	defer r.unit.Unlock()

	tx, ok := r.txs[id]
	if !ok {
		return nil, transaction.ErrNotFound
	}

	return &tx, nil
}

func (r *memRepo) ListTransactions(context.Context, transaction.ListFilter) ([]*transaction.Transaction, error) {
	return nil, errors.New("not supported")
}

func (r *memRepo) BeginBatch(context.Context) (transaction.BatchTx, error) {
	return nil, errors.New("not supported")
}

func (r *memRepo) BeginApproval(context.Context) (transaction.ApprovalTx, error) {
	r.unit.Lock()
	return &memApproval{repo: r, staged: make(map[uuid.UUID]uuid.UUID), balances: make(map[string]int64)}, nil
}

func (r *memRepo) sumApproved(studentID string) int64 {
	var sum int64

	for _, tx := range r.txs {
		if tx.StudentID == studentID && tx.Status == transaction.StatusApproved {
			sum += tx.Signed()
		}
	}

	return sum
}

type memApproval struct {
	repo     *memRepo
	done     bool
	staged   map[uuid.UUID]uuid.UUID
	balances map[string]int64
}

func (a *memApproval) LockTransaction(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	tx, ok := a.repo.txs[id]
	if !ok {
		return nil, transaction.ErrNotFound
	}

	return &tx, nil
}

func (a *memApproval) LockBalance(_ context.Context, studentID string) (int64, error) {
	return a.repo.balances[studentID], nil
}

func (a *memApproval) MarkApproved(_ context.Context, id, approverID uuid.UUID) (time.Time, error) {
	if a.repo.txs[id].Status != transaction.StatusPending {
		return time.Time{}, transaction.ErrAlreadyApproved
	}

	a.staged[id] = approverID

	return time.Now(), nil
}

func (a *memApproval) PutBalance(_ context.Context, studentID string, amount int64) (time.Time, error) {
	a.balances[studentID] = amount
	return time.Now(), nil
}

func (a *memApproval) Commit() error {
	if a.done {
		return errors.New("unit already finished")
	}

	for id, approver := range a.staged {
		tx := a.repo.txs[id]
		tx.Status = transaction.StatusApproved
		tx.ApprovedBy = &approver
		a.repo.txs[id] = tx
	}

	for studentID, amount := range a.balances {
		a.repo.balances[studentID] = amount
	}

	a.done = true
	a.repo.unit.Unlock()

	return nil
}

func (a *memApproval) Rollback() error {
	if a.done {
		return nil
	}

	a.done = true
	a.repo.unit.Unlock()

	return nil
}

type adminSet map[uuid.UUID]bool

func (s adminSet) IsAdmin(_ context.Context, id uuid.UUID) (bool, error) {
	return s[id], nil
}

func TestApprove_ConcurrentSameTransaction(t *testing.T) {
	repo := newMemRepo()
	admin := uuid.New()
	svc := transaction.NewService(repo, adminSet{admin: true}, nil, nil)
	ctx := context.Background()

	tx, err := svc.Submit(ctx, transaction.SubmitParams{
		StudentID: "S1", Amount: 50000, Type: transaction.TypeDeposit, SubmittedBy: uuid.New(),
	})
	require.NoError(t, err)

	const approvers = 16

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for range approvers {
		wg.Go(func() {
			_, err := svc.Approve(ctx, tx.ID, admin)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, transaction.ErrAlreadyApproved):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, approvers-1, conflicts)
	assert.Equal(t, int64(50000), repo.balances["S1"])
}

func TestApprove_ConcurrentSameStudent(t *testing.T) {
	repo := newMemRepo()
	admin := uuid.New()
	svc := transaction.NewService(repo, adminSet{admin: true}, nil, nil)
	ctx := context.Background()

	var ids []uuid.UUID

	for i := range 20 {
		typ := transaction.TypeDeposit
		if i%4 == 0 {
			typ = transaction.TypeWithdrawal
		}

		tx, err := svc.Submit(ctx, transaction.SubmitParams{
			StudentID: "S1", Amount: int64(1000 * (i + 1)), Type: typ, SubmittedBy: uuid.New(),
		})
		require.NoError(t, err)

		ids = append(ids, tx.ID)
	}

	var wg sync.WaitGroup

	for _, id := range ids {
		wg.Go(func() {
			_, err := svc.Approve(ctx, id, admin)
			assert.NoError(t, err)
		})
	}

	wg.Wait()

	assert.Equal(t, repo.sumApproved("S1"), repo.balances["S1"])
}

func TestApprove_NonAdminWritesNothing(t *testing.T) {
	repo := newMemRepo()
	svc := transaction.NewService(repo, adminSet{}, nil, nil)
	ctx := context.Background()

	tx, err := svc.Submit(ctx, transaction.SubmitParams{
		StudentID: "S1", Amount: 1000, Type: transaction.TypeDeposit, SubmittedBy: uuid.New(),
	})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, tx.ID, uuid.New())
	assert.ErrorIs(t, err, transaction.ErrForbidden)

	got, err := svc.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPending, got.Status)
	assert.Zero(t, repo.balances["S1"])
}
