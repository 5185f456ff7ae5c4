package view

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tabungan/internal/feed"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

type listFilter int

const (
	listFilterPending listFilter = iota
	listFilterAll
)

// ListModel shows the live transaction feed and lets administrators approve
// pending entries.
type ListModel struct {
	CommonModel
	txService *transaction.Service
	userID    uuid.UUID
	admin     bool

	table  table.Model
	filter listFilter

	snapshot feed.Snapshot
	txs      []*transaction.Transaction

	approving bool
	status    string
}

func NewListModel(txSvc *transaction.Service, userID uuid.UUID, admin bool, snap feed.Snapshot) ListModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Student", Width: 10},
		{Title: "Type", Width: 11},
		{Title: "Amount", Width: 16},
		{Title: "Status", Width: 9},
		{Title: "Note", Width: 30},
	}

	m := ListModel{
		txService: txSvc,
		userID:    userID,
		admin:     admin,
		table:     newTable(columns),
		snapshot:  snap,
	}
	m.refreshTable()

	return m
}

func (m ListModel) ShortHelp() string {
	help := "Esc: back | s: toggle pending/all"
	if m.admin {
		help += " | a: approve"
	}

	return help
}

func (m ListModel) Init() tea.Cmd {
	return nil
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FeedMsg:
		// Snapshots can arrive out of order; only move forward.
		if msg.Snapshot.Seq > m.snapshot.Seq {
			m.snapshot = msg.Snapshot
			m.refreshTable()
		}

		return m, nil

	case approveResultMsg:
		m.approving = false

		switch {
		case errors.Is(msg.err, transaction.ErrAlreadyApproved):
			m.status = "Already approved by someone else."
		case errors.Is(msg.err, transaction.ErrForbidden):
			m.status = "Only administrators can approve."
		case msg.err != nil:
			m.status = fmt.Sprintf("Error approving: %v", msg.err)
		default:
			m.status = fmt.Sprintf("Approved %s for %s. New balance %s.",
				FormatChange(msg.approval.Transaction),
				msg.approval.Transaction.StudentID,
				FormatAmount(msg.approval.Balance.Balance))
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "s":
			m.filter = (m.filter + 1) % 2
			m.refreshTable()

			return m, nil
		case "a":
			if m.approving || !m.admin {
				return m, nil
			}

			tx := m.selected()
			if tx == nil || !tx.Pending() {
				return m, nil
			}

			m.approving = true
			m.status = "Approving..."

			return m, m.approveCmd(tx.ID)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) selected() *transaction.Transaction {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return nil
	}

	return m.txs[idx]
}

func (m *ListModel) refreshTable() {
	m.txs = m.snapshot.Pending
	if m.filter == listFilterAll {
		m.txs = m.snapshot.Transactions
	}

	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			FormatDate(tx.CreatedAt),
			tx.StudentID,
			string(tx.Type),
			FormatChange(tx),
			string(tx.Status),
			tx.Note,
		})
	}

	m.table.SetRows(rows)
}

func (m ListModel) View() string {
	labels := []string{"Pending", "All"}

	header := fmt.Sprintf("Filter: [s] %s | %d pending | feed #%d",
		activeStyle(labels[m.filter]), len(m.snapshot.Pending), m.snapshot.Seq)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
		lipgloss.NewStyle().Faint(true).Render(m.ShortHelp()),
	)

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

type approveResultMsg struct {
	approval *transaction.Approval
	err      error
}

func (m ListModel) approveCmd(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		approval, err := m.txService.Approve(ctx, id, m.userID)

		return approveResultMsg{approval: approval, err: err}
	}
}
