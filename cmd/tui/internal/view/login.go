package view

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tabungan/internal/auth"
)

const (
	modeSignIn   = "signin"
	modeRegister = "register"
)

// loginFields lives on the heap so the form keeps writing to the same values
// as the model is copied between updates.
type loginFields struct {
	mode     string
	email    string
	password string
}

// LoginModel signs a user in. Success is reported by the auth service as a
// session change, not by this model.
type LoginModel struct {
	CommonModel
	authService *auth.Service

	form    *huh.Form
	fields  *loginFields
	loading bool
	status  string
}

func NewLoginModel(authSvc *auth.Service) LoginModel {
	m := LoginModel{authService: authSvc, fields: &loginFields{mode: modeSignIn}}
	m.form = m.buildForm()

	return m
}

func (m LoginModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Tabungan").
				Options(
					huh.NewOption("Sign in", modeSignIn),
					huh.NewOption("Create account", modeRegister),
				).
				Value(&m.fields.mode),

			huh.NewInput().
				Title("Email").
				Value(&m.fields.email).
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return errors.New("enter an email address")
					}
					return nil
				}),

			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fields.password).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("password cannot be empty")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

type loginResultMsg struct {
	err error
}

// SignedInMsg hands the session token to the caller so it can sign out later.
type SignedInMsg struct {
	Token string
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(loginResultMsg); ok {
		m.loading = false
		m.status = res.err.Error()
		m.fields.password = ""
		m.form = m.buildForm()

		return m, m.form.Init()
	}

	if m.loading {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.loading = true

	return m, m.submitCmd()
}

func (m LoginModel) submitCmd() tea.Cmd {
	mode, email, password := m.fields.mode, m.fields.email, m.fields.password

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if mode == modeRegister {
			if _, err := m.authService.Register(ctx, email, password); err != nil {
				return loginResultMsg{err: fmt.Errorf("register: %w", err)}
			}
		}

		session, err := m.authService.SignIn(ctx, email, password)
		if err != nil {
			return loginResultMsg{err: err}
		}

		return SignedInMsg{Token: session.Token}
	}
}

func (m LoginModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Signing in...")
	}

	content := m.form.View()
	if m.status != "" {
		content = errorStyle(m.status) + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(2).Render(content)
}
