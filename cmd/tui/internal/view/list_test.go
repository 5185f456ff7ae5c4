package view_test

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/tabungan/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/tabungan/internal/feed"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

func snapshot(seq uint64, txs ...*transaction.Transaction) feed.Snapshot {
	s := feed.Snapshot{Transactions: txs, Seq: seq, At: time.Now()}
	for _, tx := range txs {
		if tx.Pending() {
			s.Pending = append(s.Pending, tx)
		}
	}

	return s
}

func tx(student string, status transaction.Status) *transaction.Transaction {
	return &transaction.Transaction{
		ID: uuid.New(), StudentID: student, Amount: 25000, Type: transaction.TypeDeposit,
		Status: status, CreatedAt: time.Now(),
	}
}

func TestListModel_FeedOnlyMovesForward(t *testing.T) {
	m := view.NewListModel(nil, uuid.New(), true, snapshot(1, tx("S1", transaction.StatusPending)))

	updated, _ := m.Update(view.FeedMsg{Snapshot: snapshot(3, tx("S1", transaction.StatusPending), tx("S2", transaction.StatusPending))})
	assert.Contains(t, updated.View(), "feed #3")
	assert.Contains(t, updated.View(), "2 pending")

	stale, _ := updated.Update(view.FeedMsg{Snapshot: snapshot(2)})
	assert.Contains(t, stale.View(), "feed #3")
	assert.Contains(t, stale.View(), "2 pending")
}

func TestListModel_ToggleFilter(t *testing.T) {
	m := view.NewListModel(nil, uuid.New(), false, snapshot(1,
		tx("S1", transaction.StatusPending),
		tx("S7", transaction.StatusApproved),
	))

	assert.NotContains(t, m.View(), "S7")

	all, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	assert.Contains(t, all.View(), "S7")
}

func TestListModel_ApproveNeedsAdmin(t *testing.T) {
	m := view.NewListModel(nil, uuid.New(), false, snapshot(1, tx("S1", transaction.StatusPending)))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	assert.Nil(t, cmd)
	assert.NotContains(t, m.View(), "a: approve")
}

func TestFormatChange(t *testing.T) {
	w := tx("S1", transaction.StatusPending)
	w.Type = transaction.TypeWithdrawal

	assert.Equal(t, "-Rp 25.000", view.FormatChange(w))
	assert.Equal(t, "Rp 25.000", view.FormatAmount(25000))
}
