package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicctl/internal/notify"
	"github.com/desertthunder/musicctl/internal/shared"
	"github.com/desertthunder/musicctl/internal/ui"
)

// TUI launches the interactive mixer.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := r.fileLogger()
	if err != nil {
		return err
	}
	r.SetLogger(fileLogger)

	manager, err := r.newManager()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		manager.Shutdown()
	}()

	model := ui.NewModel(ui.ModelOpts{
		Context:      ctx,
		Session:      manager,
		Slots:        r.slots(),
		MasterVolume: r.config.MasterVolume,
		Board:        notify.NewBoard(notify.BoardOpts{Lifetime: r.config.UI.ToastDuration}),
		Logger:       r.logger,
		CommandKey:   r.config.Server.CommandKey,
		AutoConnect:  !cmd.Bool("no-connect"),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func (r *Runner) fileLogger() (*log.Logger, error) {
	path := r.config.Log.File
	if path == "" {
		path = "./tmp/musicctl.log"
	}
	l, err := shared.NewFileLogger(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	return l, nil
}
