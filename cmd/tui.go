package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"tunedex/internal/shared"
	"tunedex/internal/ui"
)

// TUI launches the interactive vault browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.authenticate(ctx); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tunedex-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, log.DebugLevel)
	r.SetLogger(fileLogger)

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("database unavailable, passes run without file matching or history", "error", err)
		db = nil
	} else {
		defer db.Close()
	}

	engine, err := r.buildEngine(db)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.vaultRepository(), engine)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
