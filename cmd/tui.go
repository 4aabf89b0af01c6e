package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mfx/internal/shared"
	"github.com/desertthunder/mfx/internal/tasks"
	"github.com/desertthunder/mfx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive manifest details view.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	file := cmd.String("file")
	if file != "" {
		if _, err := shared.VerifyFile(file); err != nil {
			return err
		}
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/mfx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	svc, err := r.manifestService()
	if err != nil {
		return err
	}

	notifications := make(chan tasks.Notification, 8)
	notifier := tasks.MultiNotifier{tasks.NewLogNotifier(r.logger), tasks.NewChannelNotifier(notifications)}

	s, err := r.newSession(ctx, svc, notifier)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.ModelOpts{
		Coordinator:   s.coord,
		State:         s.state,
		Submitter:     svc,
		Notifications: notifications,
		Progress:      s.progress,
		ManifestFile:  file,
		Disconnected:  r.config.Content.Disconnected,
	})
	p := tea.NewProgram(model, tea.WithContext(ctx))

	_, err = p.Run()
	model.Close()
	s.Close()
	close(notifications)

	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// tuiCommand returns the top-level TUI command for interactive manifest management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive manifest view",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Manifest archive imported with the u key",
			},
		},
		Action: r.TUI,
	}
}
