package view

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/tabungan/internal/auth"
	"github.com/MrJamesThe3rd/tabungan/internal/feed"
)

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// SessionMsg carries a sign-in or sign-out. Identity is nil after sign-out.
type SessionMsg struct {
	Identity *auth.Identity
}

// FeedMsg carries a snapshot pushed by the live feed.
type FeedMsg struct {
	Snapshot feed.Snapshot
}
