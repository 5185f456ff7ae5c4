package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tabungan/internal/importer"
	"github.com/MrJamesThe3rd/tabungan/internal/student"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateKindSelect importState = iota
	importStateFilePick
	importStateImporting
	importStatePreview
	importStateResult
)

type ImportModel struct {
	CommonModel
	txService      *transaction.Service
	studentService *student.Service
	importService  *importer.Service
	userID         uuid.UUID

	state       importState
	filePicker  filepicker.Model
	spinner     spinner.Model
	kindOptions []importer.Kind
	kindCursor  int
	kind        importer.Kind

	params  []transaction.SubmitParams
	preview list.Model

	status string
	err    error
}

func NewImportModel(txSvc *transaction.Service, studentSvc *student.Service, impSvc *importer.Service, userID uuid.UUID, admin bool) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	kinds := []importer.Kind{importer.KindSlips}
	if admin {
		kinds = append(kinds, importer.KindRoster)
	}

	return ImportModel{
		txService:      txSvc,
		studentService: studentSvc,
		importService:  impSvc,
		userID:         userID,
		filePicker:     fp,
		spinner:        spinner.New(spinner.WithSpinner(spinner.Dot)),
		kindOptions:    kinds,
	}
}

func (m ImportModel) ShortHelp() string {
	if m.state == importStatePreview {
		return "Enter: submit all | Esc: cancel"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return nil
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		switch m.state {
		case importStateKindSelect:
			return m.updateKindSelect(msg)
		case importStatePreview:
			if msg.Type == tea.KeyEnter {
				m.state = importStateImporting
				m.status = fmt.Sprintf("Submitting %d slips...", len(m.params))

				return m, tea.Batch(m.spinner.Tick, m.submitCmd())
			}

			var cmd tea.Cmd
			m.preview, cmd = m.preview.Update(msg)

			return m, cmd
		}

	case spinner.TickMsg:
		if m.state != importStateImporting {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case rosterResultMsg:
		m.state = importStateResult
		m.err = msg.err
		m.status = fmt.Sprintf("Imported %d students.", msg.count)

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		return m, nil

	case slipsParsedMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.params = msg.params
		m.state = importStatePreview

		items := make([]list.Item, len(msg.params))
		for i, p := range msg.params {
			items[i] = slipItem{params: p, row: i + 1}
		}

		m.preview = list.New(items, slipDelegate{}, 80, 20)
		m.preview.Title = fmt.Sprintf("%d slips ready for approval", len(items))
		m.preview.SetShowStatusBar(false)
		m.preview.SetFilteringEnabled(false)
		m.preview.SetShowHelp(false)

		return m, nil

	case slipsSubmittedMsg:
		m.state = importStateResult
		m.err = msg.err
		m.status = fmt.Sprintf("Submitted %d slips. They are now pending approval.", msg.count)

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		return m, nil
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Reading %s...", path)

		return m, tea.Batch(m.spinner.Tick, m.importCmd(path))
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateFilePick, importStateResult, importStatePreview:
		m.state = importStateKindSelect
		m.err = nil
		m.status = ""
		m.params = nil

		return m, nil
	}

	return m, Back
}

func (m ImportModel) updateKindSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.kindCursor > 0 {
			m.kindCursor--
		}
	case tea.KeyDown:
		if m.kindCursor < len(m.kindOptions)-1 {
			m.kindCursor++
		}
	case tea.KeyEnter:
		m.kind = m.kindOptions[m.kindCursor]
		m.state = importStateFilePick

		return m, m.filePicker.Init()
	}

	return m, nil
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateKindSelect:
		return m.viewKindSelect()
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select %s file:\n\n%s", m.kind, m.filePicker.View()),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.spinner.View() + " " + m.status)
	case importStatePreview:
		return lipgloss.NewStyle().Padding(1).Render(
			lipgloss.JoinVertical(lipgloss.Left, m.preview.View(), lipgloss.NewStyle().Faint(true).Render(m.ShortHelp())),
		)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewKindSelect() string {
	s := "Import:\n\n"

	for i, kind := range m.kindOptions {
		cursor := " "
		if i == m.kindCursor {
			cursor = ">"
		}

		s += fmt.Sprintf("%s %s\n", cursor, string(kind))
	}

	return lipgloss.NewStyle().Padding(2).Render(s)
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(errorStyle(m.status) + "\n\n(Esc to go back)")
	}

	return style.Render(
		lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(m.status) +
			"\n\n(Esc to go back)",
	)
}

// Messages

type rosterResultMsg struct {
	count int
	err   error
}

type slipsParsedMsg struct {
	params []transaction.SubmitParams
	err    error
}

type slipsSubmittedMsg struct {
	count int
	err   error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	kind := m.kind

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return slipsParsedMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		if kind == importer.KindRoster {
			students, err := m.importService.Roster(f)
			if err != nil {
				return rosterResultMsg{err: err}
			}

			n, err := m.studentService.Upsert(ctx, students)

			return rosterResultMsg{count: n, err: err}
		}

		params, err := m.importService.Slips(f)
		if err != nil {
			return slipsParsedMsg{err: err}
		}

		for i := range params {
			if _, err := m.studentService.Get(ctx, params[i].StudentID); err != nil {
				if errors.Is(err, student.ErrNotFound) {
					return slipsParsedMsg{err: fmt.Errorf("row %d: unknown student %s", i+1, params[i].StudentID)}
				}

				return slipsParsedMsg{err: err}
			}

			params[i].SubmittedBy = m.userID
		}

		return slipsParsedMsg{params: params}
	}
}

func (m ImportModel) submitCmd() tea.Cmd {
	params := m.params

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		txs, err := m.txService.SubmitBatch(ctx, params)

		return slipsSubmittedMsg{count: len(txs), err: err}
	}
}

// Preview list item

type slipItem struct {
	params transaction.SubmitParams
	row    int
}

func (i slipItem) FilterValue() string { return i.params.StudentID }

type slipDelegate struct{}

func (d slipDelegate) Height() int                             { return 1 }
func (d slipDelegate) Spacing() int                            { return 0 }
func (d slipDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d slipDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(slipItem)
	if !ok {
		return
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	fmt.Fprintf(w, "%s%3d  %-10s %-10s %14s  %s",
		cursor, item.row,
		item.params.StudentID,
		item.params.Type,
		FormatAmount(item.params.Amount),
		item.params.Note,
	)
}
