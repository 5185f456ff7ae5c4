package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tabungan/internal/balance"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
)

// OpenSubmitMsg asks for the submit form for Student.
type OpenSubmitMsg struct {
	Student *student.Student
}

// OpenStatementMsg asks for the statement of Student.
type OpenStatementMsg struct {
	Student *student.Student
}

type StudentsModel struct {
	CommonModel
	studentService *student.Service
	balanceService *balance.Service

	table    table.Model
	students []*student.Student
	balances map[string]int64

	loading bool
	err     error
}

func NewStudentsModel(studentSvc *student.Service, balanceSvc *balance.Service) StudentsModel {
	columns := []table.Column{
		{Title: "ID", Width: 10},
		{Title: "NIS", Width: 12},
		{Title: "Name", Width: 30},
		{Title: "Class", Width: 8},
		{Title: "Balance", Width: 16},
	}

	return StudentsModel{
		studentService: studentSvc,
		balanceService: balanceSvc,
		table:          newTable(columns),
		loading:        true,
	}
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func (m StudentsModel) ShortHelp() string {
	return "Esc: back | Enter: statement | n: new transaction | r: refresh"
}

func (m StudentsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m StudentsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadStudentsMsg:
		m.loading = false
		m.err = msg.err

		if msg.err == nil {
			m.students = msg.students
			m.balances = msg.balances
			m.refreshTable()
		}

		return m, nil

	case FeedMsg:
		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "enter":
			if s := m.selected(); s != nil {
				return m, func() tea.Msg { return OpenStatementMsg{Student: s} }
			}
		case "n":
			if s := m.selected(); s != nil {
				return m, func() tea.Msg { return OpenSubmitMsg{Student: s} }
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m StudentsModel) selected() *student.Student {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.students) {
		return nil
	}

	return m.students[idx]
}

func (m *StudentsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.students))
	for _, s := range m.students {
		rows = append(rows, table.Row{
			s.ID,
			s.NIS,
			s.Name,
			s.Class,
			FormatAmount(m.balances[s.ID]),
		})
	}

	m.table.SetRows(rows)
}

func (m StudentsModel) View() string {
	if m.loading && m.students == nil {
		return lipgloss.NewStyle().Padding(2).Render("Loading students...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	if len(m.students) == 0 {
		return lipgloss.NewStyle().Padding(2).Render("No students yet. Import a roster first.")
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left, tableView, lipgloss.NewStyle().Faint(true).Render(m.ShortHelp())),
	)
}

type loadStudentsMsg struct {
	students []*student.Student
	balances map[string]int64
	err      error
}

func (m StudentsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		students, err := m.studentService.List(ctx)
		if err != nil {
			return loadStudentsMsg{err: err}
		}

		balances := make(map[string]int64, len(students))
		for _, s := range students {
			b, err := m.balanceService.Lookup(ctx, s.ID)
			if err != nil {
				return loadStudentsMsg{err: fmt.Errorf("balance of %s: %w", s.ID, err)}
			}

			balances[s.ID] = b
		}

		return loadStudentsMsg{students: students, balances: balances}
	}
}
