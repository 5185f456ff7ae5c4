package view

import (
	"context"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/tabungan/internal/money"
	"github.com/MrJamesThe3rd/tabungan/internal/transaction"
)

const dbTimeout = 5 * time.Second

func FormatAmount(amount int64) string {
	return money.Format(amount)
}

// FormatChange renders the effect tx has on a balance once approved.
func FormatChange(tx *transaction.Transaction) string {
	return money.FormatSigned(tx.Signed())
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func errorStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(s)
}
