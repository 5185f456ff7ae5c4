package statement

import (
	"cmp"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/tabungan/internal/balance"
	"github.com/MrJamesThe3rd/tabungan/internal/money"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

type Students interface {
	Get(ctx context.Context, id string) (*student.Student, error)
}

type Transactions interface {
	List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

type Balances interface {
	Lookup(ctx context.Context, studentID string) (int64, error)
	Reconcile(ctx context.Context, studentID string) (*balance.Reconciliation, error)
}

// Line is one approved transaction and the balance right after it.
type Line struct {
	Transaction *transaction.Transaction
	Delta       int64
	Running     int64
}

type Statement struct {
	Student        *student.Student
	Lines          []Line
	Closing        int64
	Reconciliation *balance.Reconciliation
	GeneratedAt    time.Time
}

// Service builds savings statements for a single student.
type Service struct {
	students     Students
	transactions Transactions
	balances     Balances
}

func NewService(students Students, transactions Transactions, balances Balances) *Service {
	return &Service{students: students, transactions: transactions, balances: balances}
}

// Build lists the approved transactions of a student in the order they were
// applied, with the running balance after each.
func (s *Service) Build(ctx context.Context, studentID string) (*Statement, error) {
	st, err := s.students.Get(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("getting student: %w", err)
	}

	approved := transaction.StatusApproved

	txs, err := s.transactions.List(ctx, transaction.ListFilter{Status: &approved, StudentID: &st.ID})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	slices.SortStableFunc(txs, func(a, b *transaction.Transaction) int {
		return cmp.Compare(appliedAt(a).UnixNano(), appliedAt(b).UnixNano())
	})

	lines := make([]Line, 0, len(txs))

	var running int64

	for _, tx := range txs {
		running += tx.Signed()
		lines = append(lines, Line{Transaction: tx, Delta: tx.Signed(), Running: running})
	}

	closing, err := s.balances.Lookup(ctx, st.ID)
	if err != nil {
		return nil, fmt.Errorf("looking up balance: %w", err)
	}

	rec, err := s.balances.Reconcile(ctx, st.ID)
	if err != nil {
		return nil, fmt.Errorf("reconciling balance: %w", err)
	}

	return &Statement{
		Student:        st,
		Lines:          lines,
		Closing:        closing,
		Reconciliation: rec,
		GeneratedAt:    time.Now(),
	}, nil
}

func appliedAt(tx *transaction.Transaction) time.Time {
	if tx.ApprovedAt != nil {
		return *tx.ApprovedAt
	}

	return tx.CreatedAt
}

// Summary renders a statement as plain text, one line per transaction.
func Summary(st *Statement) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s (%s) %s\n", st.Student.Name, st.Student.ID, st.Student.Class)

	for _, l := range st.Lines {
		fmt.Fprintf(&sb, "%s | %s | %s | %s | %s\n",
			appliedAt(l.Transaction).Format(time.DateOnly),
			l.Transaction.Type,
			money.FormatSigned(l.Delta),
			money.Format(l.Running),
			l.Transaction.Note,
		)
	}

	fmt.Fprintf(&sb, "Saldo: %s\n", money.Format(st.Closing))

	if st.Reconciliation != nil && !st.Reconciliation.Consistent() {
		fmt.Fprintf(&sb, "Selisih: %s\n", money.FormatSigned(st.Reconciliation.Drift))
	}

	return sb.String()
}

// WriteCSV writes the statement lines with raw integer amounts.
func WriteCSV(w io.Writer, st *Statement) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"date", "transaction_id", "type", "amount", "delta", "balance", "note"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, l := range st.Lines {
		record := []string{
			appliedAt(l.Transaction).Format(time.DateOnly),
			l.Transaction.ID.String(),
			string(l.Transaction.Type),
			strconv.FormatInt(l.Transaction.Amount, 10),
			strconv.FormatInt(l.Delta, 10),
			strconv.FormatInt(l.Running, 10),
			l.Transaction.Note,
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing line: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}
