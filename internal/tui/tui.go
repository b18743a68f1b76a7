package tui

import (
	"examshelf/internal/blob"
	"examshelf/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Store     store.Store
	Blobs     blob.Store
	DB        *store.DB
	Workspace string
}

func Run(opts Options) error {
	applyColorProfilePreference()
	m := newAppModel(opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
