package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tabungan/internal/money"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

type submitFields struct {
	typ     transaction.Type
	amount  string
	note    string
	confirm bool
}

// SubmitModel records a pending deposit or withdrawal for one student.
type SubmitModel struct {
	CommonModel
	txService *transaction.Service
	student   *student.Student
	userID    uuid.UUID

	form   *huh.Form
	fields *submitFields

	done   bool
	status string
	err    error
}

func NewSubmitModel(txSvc *transaction.Service, st *student.Student, userID uuid.UUID) SubmitModel {
	m := SubmitModel{
		txService: txSvc,
		student:   st,
		userID:    userID,
		fields:    &submitFields{typ: transaction.TypeDeposit, confirm: true},
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[transaction.Type]().
				Title("Type").
				Options(
					huh.NewOption("Deposit", transaction.TypeDeposit),
					huh.NewOption("Withdrawal", transaction.TypeWithdrawal),
				).
				Value(&m.fields.typ),

			huh.NewInput().
				Title("Amount").
				Placeholder("50.000").
				Value(&m.fields.amount).
				Validate(func(s string) error {
					_, err := money.Parse(s)
					return err
				}),

			huh.NewInput().
				Title("Note").
				CharLimit(500).
				Value(&m.fields.note),

			huh.NewConfirm().
				Title("Submit for approval?").
				Affirmative("Submit").
				Negative("Cancel").
				Value(&m.fields.confirm),
		),
	).WithWidth(45).WithShowHelp(false)

	return m
}

func (m SubmitModel) Init() tea.Cmd {
	return m.form.Init()
}

type submitResultMsg struct {
	tx  *transaction.Transaction
	err error
}

func (m SubmitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case submitResultMsg:
		m.done = true
		m.err = msg.err

		if msg.err == nil {
			m.status = fmt.Sprintf("Submitted %s %s for %s. Waiting for approval.",
				msg.tx.Type, FormatAmount(msg.tx.Amount), m.student.Name)
		}

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc || m.done {
			return m, Back
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		return m, Back
	case huh.StateCompleted:
		if !m.fields.confirm {
			return m, Back
		}

		if m.status == "" {
			m.status = "Submitting..."
			return m, m.submitCmd()
		}
	}

	return m, cmd
}

func (m SubmitModel) submitCmd() tea.Cmd {
	amount, err := money.Parse(m.fields.amount)
	if err != nil {
		return func() tea.Msg { return submitResultMsg{err: err} }
	}

	params := transaction.SubmitParams{
		StudentID:   m.student.ID,
		Amount:      amount,
		Type:        m.fields.typ,
		Note:        m.fields.note,
		SubmittedBy: m.userID,
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		tx, err := m.txService.Submit(ctx, params)

		return submitResultMsg{tx: tx, err: err}
	}
}

func (m SubmitModel) View() string {
	header := fmt.Sprintf("New transaction for %s (%s)", m.student.Name, m.student.ID)

	var body string

	switch {
	case m.err != nil:
		body = errorStyle(fmt.Sprintf("Error: %v", m.err)) + "\n\nPress any key to go back."
	case m.done:
		body = m.status + "\n\nPress any key to go back."
	case m.status != "":
		body = m.status
	default:
		body = m.form.View()
	}

	return lipgloss.NewStyle().Padding(2).Render(activeStyle(header) + "\n\n" + body)
}
