package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/tabungan/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/tabungan/internal/app"
	"github.com/MrJamesThe3rd/tabungan/internal/auth"
	"github.com/MrJamesThe3rd/tabungan/internal/config"
	"github.com/MrJamesThe3rd/tabungan/internal/feed"
)

type model struct {
	app *app.App

	identity *auth.Identity
	token    string
	snapshot feed.Snapshot

	currentView View
	status      string

	loginView     view.LoginModel
	studentsView  view.StudentsModel
	listView      view.ListModel
	importView    view.ImportModel
	submitView    view.SubmitModel
	statementView view.StatementModel
}

type View int

const (
	ViewLogin View = iota
	ViewMenu
	ViewStudents
	ViewList
	ViewImport
	ViewSubmit
	ViewStatement
)

func initialModel(a *app.App) model {
	return model{
		app:         a,
		currentView: ViewLogin,
		loginView:   view.NewLoginModel(a.Auth),
	}
}

func (m model) Init() tea.Cmd {
	return m.loginView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			return m.updateMenu(msg)
		}

	case view.SessionMsg:
		m.identity = msg.Identity
		m.status = ""

		if m.identity == nil {
			m.token = ""
			m.currentView = ViewLogin
			m.loginView = view.NewLoginModel(m.app.Auth)

			return m, m.loginView.Init()
		}

		m.currentView = ViewMenu

		return m, nil

	case view.SignedInMsg:
		m.token = msg.Token
		return m, nil

	case signOutMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Sign out failed: %v", msg.err)
		}

		return m, nil

	case view.FeedMsg:
		if msg.Snapshot.Seq > m.snapshot.Seq {
			m.snapshot = msg.Snapshot
		}

	case view.OpenSubmitMsg:
		m.currentView = ViewSubmit
		m.submitView = view.NewSubmitModel(m.app.Transactions, msg.Student, m.identity.UserID)

		return m, m.submitView.Init()

	case view.OpenStatementMsg:
		m.currentView = ViewStatement
		m.statementView = view.NewStatementModel(m.app.Statements, msg.Student)

		return m, m.statementView.Init()

	case view.BackMsg:
		switch m.currentView {
		case ViewSubmit, ViewStatement:
			m.currentView = ViewStudents
			return m, m.studentsView.Init()
		}

		m.currentView = ViewMenu

		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewStudents:
		var newModel tea.Model
		newModel, cmd = m.studentsView.Update(msg)
		m.studentsView = newModel.(view.StudentsModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewSubmit:
		var newModel tea.Model
		newModel, cmd = m.submitView.Update(msg)
		m.submitView = newModel.(view.SubmitModel)
	case ViewStatement:
		var newModel tea.Model
		newModel, cmd = m.statementView.Update(msg)
		m.statementView = newModel.(view.StatementModel)
	}

	return m, cmd
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	admin := m.identity.IsAdmin()

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "1":
		m.currentView = ViewStudents
		m.studentsView = view.NewStudentsModel(m.app.Students, m.app.Balances)

		return m, m.studentsView.Init()
	case "2":
		m.currentView = ViewList
		m.listView = view.NewListModel(m.app.Transactions, m.identity.UserID, admin, m.snapshot)

		return m, m.listView.Init()
	case "3":
		m.currentView = ViewImport
		m.importView = view.NewImportModel(m.app.Transactions, m.app.Students, m.app.Importer, m.identity.UserID, admin)

		return m, m.importView.Init()
	case "4":
		return m, m.signOutCmd()
	}

	return m, nil
}

type signOutMsg struct {
	err error
}

func (m model) signOutCmd() tea.Cmd {
	token := m.token

	return func() tea.Msg {
		ctx, cancel := view.DbCtx()
		defer cancel()

		return signOutMsg{err: m.app.Auth.SignOut(ctx, token)}
	}
}

func (m model) View() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMenu:
		return m.viewMenu()
	case ViewStudents:
		return m.studentsView.View()
	case ViewList:
		return m.listView.View()
	case ViewImport:
		return m.importView.View()
	case ViewSubmit:
		return m.submitView.View()
	case ViewStatement:
		return m.statementView.View()
	}

	return "Unknown View"
}

func (m model) viewMenu() string {
	s := fmt.Sprintf("Tabungan  %s (%s)\n\n", m.identity.Email, m.identity.Role) +
		"1. Students & Balances\n" +
		fmt.Sprintf("2. Transactions (%d pending)\n", len(m.snapshot.Pending)) +
		"3. Import\n" +
		"4. Sign out\n\n" +
		"q. Quit"

	if m.status != "" {
		s += "\n\n" + m.status
	}

	return lipgloss.NewStyle().Padding(2).Render(s)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logFile, err := tea.LogToFile("tabungan-tui.log", "")
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	slog.SetDefault(app.NewLogger(logFile, cfg.App.LogFormat, cfg.App.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		fmt.Fprintln(os.Stderr, "failed to start:", err)
		os.Exit(1)
	}
	defer a.Close()

	p := tea.NewProgram(initialModel(a), tea.WithAltScreen())

	stopSessions := a.Auth.OnSessionChange(func(ev auth.SessionEvent) {
		p.Send(view.SessionMsg{Identity: ev.Identity})
	})
	defer stopSessions()

	// The hub calls back before the program runs, and Send blocks until it
	// does, so deliveries go through their own goroutine. Views drop stale Seqs.
	unsubscribe, err := a.Hub.Subscribe(ctx, func(s feed.Snapshot) {
		go p.Send(view.FeedMsg{Snapshot: s})
	})
	if err != nil {
		slog.Error("failed to subscribe to feed", "error", err)
	} else {
		defer unsubscribe()
	}

	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
