package balance

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("balance not found")

// Balance is the running total for one student in rupiah. A student with no
// record has a balance of zero.
type Balance struct {
	StudentID string
	Balance   int64
	UpdatedAt time.Time
}

// Reconciliation compares the stored balance with the sum of approved
// transactions. A non-zero Drift means the two have diverged.
type Reconciliation struct {
	StudentID string
	Stored    int64
	Computed  int64
	Drift     int64
}

func (r *Reconciliation) Consistent() bool {
	return r.Drift == 0
}
