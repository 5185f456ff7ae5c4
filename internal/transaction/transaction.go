package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type is the direction of a savings transaction.
type Type string

const (
	TypeDeposit    Type = "deposit"
	TypeWithdrawal Type = "withdrawal"
)

func (t Type) Valid() bool {
	return t == TypeDeposit || t == TypeWithdrawal
}

// Status is the lifecycle state of a transaction. It only ever moves from
// pending to approved.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved
}

var (
	ErrNotFound        = errors.New("transaction not found")
	ErrInvalid         = errors.New("invalid transaction")
	ErrForbidden       = errors.New("approver is not an admin")
	ErrAlreadyApproved = errors.New("transaction already approved")
	// ErrOverflow rejects an approval whose resulting balance would not fit.
	ErrOverflow = errors.New("balance out of range")
	// ErrStore marks failures of the underlying store. They are usually
	// transient and the operation can be retried.
	ErrStore = errors.New("transaction store unavailable")
)

type Transaction struct {
	ID         uuid.UUID
	StudentID  string
	Amount     int64 // Rupiah, always positive
	Type       Type
	Note       string
	Status     Status
	CreatedAt  time.Time
	CreatedBy  uuid.UUID
	ApprovedBy *uuid.UUID
	ApprovedAt *time.Time
}

// Signed returns the amount with the sign it contributes to a balance.
func (t *Transaction) Signed() int64 {
	if t.Type == TypeWithdrawal {
		return -t.Amount
	}

	return t.Amount
}

func (t *Transaction) Pending() bool {
	return t.Status == StatusPending
}
