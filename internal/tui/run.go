package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pfrederiksen/datebook/internal/logger"
	"github.com/pfrederiksen/datebook/internal/storage"
	"github.com/pfrederiksen/datebook/internal/store"
)

// Run starts the interactive view and blocks until the user quits. With
// opts.Watch set, external changes to opts.DataFile trigger a reload.
func Run(s *store.Store, opts Options) error {
	p := tea.NewProgram(NewModel(s, opts), tea.WithAltScreen())

	if opts.Watch && opts.DataFile != "" {
		w, err := storage.NewWatcher(opts.DataFile, func() {
			p.Send(fileChangedMsg{})
		})
		if err != nil {
			logger.Warn("file watching disabled", logger.Fields{"error": err.Error()})
		} else {
			defer w.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running interactive view: %w", err)
	}
	return nil
}
