package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive list and blocks until the user quits or ctx
// is cancelled. opt.Updates is filled from the service's store when unset.
func Run(ctx context.Context, opt Options) error {
	applyColorProfile()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opt.Updates == nil {
		updates, err := opt.Service.Store().Observe(ctx)
		if err != nil {
			return fmt.Errorf("observe items: %w", err)
		}
		opt.Updates = updates
	}

	p := tea.NewProgram(New(ctx, opt),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
