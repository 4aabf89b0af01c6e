package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/services"
	"github.com/desertthunder/mfx/internal/shared"
	"github.com/desertthunder/mfx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TaskShow prints the current snapshot of a task.
func (r *Runner) TaskShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}

	svc, err := r.manifestService()
	if err != nil {
		return err
	}
	task, err := svc.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(task, true)
	}

	outcome := models.Classify(task)
	r.writePlainHeader("Task " + task.ID)
	if task.Label != "" {
		r.writePlain("Label:    %s\n", task.Label)
	}
	r.writePlain("State:    %s\n", task.State)
	r.writePlain("Outcome:  %s\n", outcome.Kind)
	if task.Pending {
		r.writePlain("Progress: %.0f%%\n", task.Progress*100)
	}
	if task.StartedAt != nil {
		r.writePlain("Started:  %s\n", task.StartedAt.Local().Format(time.DateTime))
	}
	if task.EndedAt != nil {
		r.writePlain("Ended:    %s\n", task.EndedAt.Local().Format(time.DateTime))
	}
	if outcome.Output != "" {
		r.writePlain("Output:   %s\n", outcome.Output)
	}
	if len(outcome.Errors) > 0 {
		r.writePlain("Errors:   %s\n", strings.Join(outcome.Errors, "; "))
	}
	return nil
}

// OrgSetCDN saves a new content delivery URL for the organization.
func (r *Runner) OrgSetCDN(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.manifestService()
	if err != nil {
		return err
	}

	org, err := svc.UpdateRepositoryURL(ctx, svc.OrganizationID(), cmd.String("url"))
	if err != nil {
		var urlErr *services.RepositoryURLError
		if errors.As(err, &urlErr) {
			for _, msg := range urlErr.Notifications() {
				r.writeNotification(tasks.Notification{Level: tasks.LevelError, Message: msg})
			}
		}
		return err
	}

	r.writePlain("✓ Repository URL updated.\n")
	r.writePlain("CDN URL: %s\n", org.RedhatRepositoryURL)
	return nil
}

// OrgShow prints the organization as JSON.
func (r *Runner) OrgShow(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.manifestService()
	if err != nil {
		return err
	}
	org, err := svc.GetOrganization(ctx, svc.OrganizationID())
	if err != nil {
		return err
	}
	return r.writeJSON(org, true)
}

func taskCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "task",
		Usage: "Inspect server tasks",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the status of a task",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TaskShow,
			},
		},
	}
}

func orgCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "org",
		Aliases: []string{"organization"},
		Usage:   "Organization settings",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the organization",
				Action: r.OrgShow,
			},
			{
				Name:  "set-cdn",
				Usage: "Set the content delivery network URL",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Repository URL, e.g. https://cdn.redhat.com",
						Required: true,
					},
				},
				Action: r.OrgSetCDN,
			},
		},
	}
}
