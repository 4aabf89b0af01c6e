package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mfx/internal/formatter"
	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/shared"
	"github.com/desertthunder/mfx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ManifestImport uploads a manifest archive and waits for the import task.
func (r *Runner) ManifestImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("file")
	if _, err := shared.VerifyFile(path); err != nil {
		return err
	}
	return r.runOperation(ctx, models.OperationImport, path, cmd.Duration("timeout"))
}

// ManifestRefresh refreshes the imported manifest when the organization allows it.
func (r *Runner) ManifestRefresh(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.manifestService()
	if err != nil {
		return err
	}

	state := tasks.NewManifestState(svc, svc, svc.OrganizationID(), nil)
	if err := state.Refresh(ctx); err != nil {
		return err
	}
	if disabled, reason := tasks.RefreshDisabled(false, state.Details(), r.config.Content.Disconnected); disabled {
		return fmt.Errorf("%w: %s", shared.ErrRefreshDisabled, reason)
	}

	return r.runOperation(ctx, models.OperationRefresh, "", cmd.Duration("timeout"))
}

// ManifestDelete deletes the imported manifest after confirmation.
func (r *Runner) ManifestDelete(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") && !r.confirm("Delete the manifest? All subscriptions will be removed from the organization.") {
		r.writePlain("Aborted.\n")
		return nil
	}
	return r.runOperation(ctx, models.OperationDelete, "", cmd.Duration("timeout"))
}

// runOperation submits op, streams progress and waits for the outcome.
//
// A non-success outcome returns [shared.ErrTaskFailed]; exceeding the timeout releases the
// registration and returns [shared.ErrTimeout].
func (r *Runner) runOperation(ctx context.Context, op models.Operation, path string, timeout time.Duration) error {
	svc, err := r.manifestService()
	if err != nil {
		return err
	}
	fn, err := tasks.NewRequest(svc, op, path)
	if err != nil {
		return err
	}

	s, err := r.newSession(ctx, svc, tasks.NotifierFunc(r.writeNotification))
	if err != nil {
		return err
	}
	printed := make(chan struct{})
	go r.printProgress(s.progress, printed)

	outcome, err := r.await(ctx, s, op, fn, timeout)
	details := s.state.Details()
	entries, more := s.state.History()
	s.Close()
	<-printed

	if err != nil {
		return err
	}
	if !outcome.Succeeded() {
		return fmt.Errorf("%w: %s finished with %s", shared.ErrTaskFailed, op, outcome.Kind)
	}

	r.writeDetails(details)
	return r.writeHistory(formatter.FromEntries("Manifest History", entries, more))
}

func (r *Runner) await(ctx context.Context, s *session, op models.Operation, fn tasks.RequestFunc, timeout time.Duration) (models.Outcome, error) {
	if _, err := s.coord.Submit(ctx, op, fn); err != nil {
		return models.Outcome{}, err
	}

	if timeout <= 0 {
		timeout = r.config.Polling.PollTimeout()
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcome, err := s.coord.Wait(waitCtx)
	if errors.Is(err, shared.ErrTimeout) {
		s.coord.UnregisterTracking()
		r.logger.Warn("stopped waiting for task", "operation", op, "timeout", timeout)
	}
	return outcome, err
}

func (r *Runner) printProgress(updates <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	last := ""
	for update := range updates {
		if update.Phase == tasks.Complete || update.Phase == tasks.Failed || update.Message == last {
			continue
		}
		last = update.Message
		r.writePlain("→ %s\n", update.Message)
	}
}

func (r *Runner) writeNotification(n tasks.Notification) {
	if n.Level == tasks.LevelError {
		r.writePlain("✗ %s\n", n.Message)
		return
	}
	r.writePlain("✓ %s\n", n.Message)
}

func (r *Runner) writeDetails(details tasks.ManifestDetails) {
	r.writePlainHeader("Subscription Manifest")
	if org := details.Organization; org != nil {
		r.writePlain("Organization: %s (id %d)\n", org.Name, org.ID)
		r.writePlain("CDN URL:      %s\n", org.RedhatRepositoryURL)
	}
	if !details.HasManifest() {
		r.writePlain("Manifest:     none imported\n")
		return
	}
	r.writePlain("Manifest:     %s\n", details.Name)
	if details.Link != "" {
		r.writePlain("Link:         %s\n", details.Link)
	}
}

func (r *Runner) writeHistory(h formatter.History) error {
	data, err := formatter.ExportToText(h)
	if err != nil {
		return err
	}
	r.writePlain("\n")
	return r.writeRaw(data)
}

// ManifestStatus prints the organization's manifest details and the newest history entries.
func (r *Runner) ManifestStatus(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.manifestService()
	if err != nil {
		return err
	}

	state := tasks.NewManifestState(svc, svc, svc.OrganizationID(), tasks.NewHistoryFeed(r.config.History.Limit()))
	if err := state.Refresh(ctx); err != nil {
		return err
	}
	details := state.Details()
	entries, more := state.History()
	disabled, reason := tasks.RefreshDisabled(false, details, r.config.Content.Disconnected)

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"organization":    details.Organization,
			"manifest":        details.Name,
			"link":            details.Link,
			"refreshable":     !disabled,
			"refresh_blocker": reason,
			"history":         entries,
			"more_history":    more,
		}, true)
	}

	r.writeDetails(details)
	if disabled {
		r.writePlain("Refresh:      unavailable (%s)\n", reason)
	} else {
		r.writePlain("Refresh:      available\n")
	}
	return r.writeHistory(formatter.FromEntries("Manifest History", entries, more))
}

// ManifestHistory exports the server history, or the locally recorded task outcomes with --local.
func (r *Runner) ManifestHistory(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	var history formatter.History
	if cmd.Bool("local") {
		history, err = r.localHistory(int(cmd.Int("limit")))
	} else {
		history, err = r.remoteHistory(ctx, cmd.Bool("all"), int(cmd.Int("limit")))
	}
	if err != nil {
		return err
	}

	data, err := formatter.Export(format, history)
	if err != nil {
		return err
	}
	return r.writeRaw(data)
}

func (r *Runner) remoteHistory(ctx context.Context, all bool, limit int) (formatter.History, error) {
	svc, err := r.manifestService()
	if err != nil {
		return formatter.History{}, err
	}

	if limit <= 0 {
		limit = r.config.History.Limit()
	}
	feed := tasks.NewHistoryFeed(limit)
	state := tasks.NewManifestState(svc, svc, svc.OrganizationID(), feed)
	if err := state.RefreshHistory(ctx); err != nil {
		return formatter.History{}, err
	}

	if all {
		return formatter.FromEntries("Manifest History", feed.All(), false), nil
	}
	return formatter.FromEntries("Manifest History", feed.Displayed(), feed.HasMore()), nil
}

func (r *Runner) localHistory(limit int) (formatter.History, error) {
	repo, err := r.taskRecords()
	if err != nil {
		return formatter.History{}, err
	}

	records, err := repo.List(map[string]any{
		"organization_id": r.config.Server.OrganizationID,
		"limit":           limit,
	})
	if err != nil {
		return formatter.History{}, err
	}
	return formatter.FromRecords("Recorded Tasks", records), nil
}

func timeoutFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Maximum time to wait for the task (default: polling.timeout)",
	}
}

func manifestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "manifest",
		Aliases: []string{"m"},
		Usage:   "Subscription manifest operations",
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Upload a manifest archive and wait for the import task",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the manifest archive",
						Required: true,
					},
					timeoutFlag(),
				},
				Action: r.ManifestImport,
			},
			{
				Name:   "refresh",
				Usage:  "Refresh the imported manifest from its upstream",
				Flags:  []cli.Flag{timeoutFlag()},
				Action: r.ManifestRefresh,
			},
			{
				Name:  "delete",
				Usage: "Delete the imported manifest",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
					timeoutFlag(),
				},
				Action: r.ManifestDelete,
			},
			{
				Name:  "status",
				Usage: "Show manifest details and recent history",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ManifestStatus,
			},
			{
				Name:  "history",
				Usage: "Export manifest history",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format (text, csv, markdown, json)",
						Value: "text",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include every entry instead of the display limit",
					},
					&cli.BoolFlag{
						Name:  "local",
						Usage: "List task outcomes recorded in the local database",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of entries to show",
					},
				},
				Action: r.ManifestHistory,
			},
		},
	}
}
