package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tabungan/internal/statement"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
)

// StatementModel shows the approved history of one student with running
// balances.
type StatementModel struct {
	CommonModel
	statementService *statement.Service
	student          *student.Student

	viewport viewport.Model
	loading  bool
	err      error
}

func NewStatementModel(stmtSvc *statement.Service, st *student.Student) StatementModel {
	return StatementModel{
		statementService: stmtSvc,
		student:          st,
		viewport:         viewport.New(90, 20),
		loading:          true,
	}
}

func (m StatementModel) Init() tea.Cmd {
	return m.loadCmd()
}

type loadStatementMsg struct {
	text string
	err  error
}

func (m StatementModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadStatementMsg:
		m.loading = false
		m.err = msg.err
		m.viewport.SetContent(msg.text)

		return m, nil

	case FeedMsg:
		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 8

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

func (m StatementModel) loadCmd() tea.Cmd {
	id := m.student.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		st, err := m.statementService.Build(ctx, id)
		if err != nil {
			return loadStatementMsg{err: err}
		}

		return loadStatementMsg{text: statement.Summary(st)}
	}
}

func (m StatementModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading statement...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	frame := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Render(m.viewport.View())

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			frame,
			lipgloss.NewStyle().Faint(true).Render("Esc: back | r: refresh | ↑/↓: scroll"),
		),
	)
}
