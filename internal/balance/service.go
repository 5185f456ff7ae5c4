package balance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=balance
type Repository interface {
	GetBalance(ctx context.Context, studentID string) (*Balance, error)
	SumApproved(ctx context.Context, studentID string) (int64, error)
}

// Cache holds recently read or written balances. Implementations may lose
// entries at any time. Set keeps whichever of the stored and given balance has
// the later UpdatedAt, so a fill racing an approval cannot win.
type Cache interface {
	Get(ctx context.Context, studentID string) (int64, bool, error)
	Set(ctx context.Context, b Balance) error
}

type Service struct {
	repo  Repository
	cache Cache
}

// NewService builds the lookup service. cache may be nil, in which case every
// lookup goes to the repository.
func NewService(repo Repository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Lookup returns the current balance of a student, zero when none is stored.
func (s *Service) Lookup(ctx context.Context, studentID string) (int64, error) {
	if s.cache != nil {
		amount, ok, err := s.cache.Get(ctx, studentID)
		if err != nil {
			slog.Warn("balance cache read failed", "student_id", studentID, "error", err)
		} else if ok {
			return amount, nil
		}
	}

	b, err := s.repo.GetBalance(ctx, studentID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return 0, fmt.Errorf("looking up balance: %w", err)
		}

		b = &Balance{StudentID: studentID}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, *b); err != nil {
			slog.Warn("balance cache write failed", "student_id", studentID, "error", err)
		}
	}

	return b.Balance, nil
}

// Remember records a freshly committed balance so the next lookup does not
// serve a stale value.
func (s *Service) Remember(ctx context.Context, b Balance) error {
	if s.cache == nil {
		return nil
	}

	return s.cache.Set(ctx, b)
}

// Reconcile recomputes the balance from approved transactions and reports any
// difference from the stored value. It always reads the store, never the cache.
func (s *Service) Reconcile(ctx context.Context, studentID string) (*Reconciliation, error) {
	var stored int64

	b, err := s.repo.GetBalance(ctx, studentID)
	switch {
	case err == nil:
		stored = b.Balance
	case errors.Is(err, ErrNotFound):
	default:
		return nil, fmt.Errorf("reading stored balance: %w", err)
	}

	computed, err := s.repo.SumApproved(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("summing approved transactions: %w", err)
	}

	return &Reconciliation{
		StudentID: studentID,
		Stored:    stored,
		Computed:  computed,
		Drift:     stored - computed,
	}, nil
}
