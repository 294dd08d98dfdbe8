package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinematch/internal/auth"
	"github.com/desertthunder/cinematch/internal/discovery"
	"github.com/desertthunder/cinematch/internal/shared"
	"github.com/desertthunder/cinematch/internal/ui"
)

// TUI launches the interactive terminal UI for movie search.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	if path := r.config.Log.File; path != "" {
		fileLogger, f, err := shared.NewFileLogger(path)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer f.Close()
		fileLogger.SetLevel(r.logger.GetLevel())
		r.SetLogger(fileLogger)
	}

	store, err := r.preferenceStore(ctx)
	if err != nil {
		return err
	}
	provider, err := r.authProvider()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	identity := auth.NewIdentity(provider, r.logger)
	model := ui.NewModel(ctx, identity, r.logger)
	model.SetController(discovery.NewController(r.catalogService(), store, model.Notifier(), r.logger))
	defer model.Close()

	if g, ok := provider.(*auth.GoogleProvider); ok {
		g.SetPrompt(func(url string) {
			model.Notifier().Notify(discovery.Notice{Message: "Open this URL in your browser to sign in:\n" + url})
		})
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
