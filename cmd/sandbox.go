package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mfx/internal/server"
	"github.com/urfave/cli/v3"
)

// Sandbox serves a local simulation of the organization, subscription and task endpoints.
func (r *Runner) Sandbox(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Sandbox
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("polls") {
		cfg.PollsToComplete = int(cmd.Int("polls"))
	}

	sb := server.NewSandbox(server.SandboxOpts{
		OrganizationID:  r.config.Server.OrganizationID,
		PollsToComplete: cfg.PollsToComplete,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		WrapUploads:     cmd.Bool("wrap-uploads"),
		Imported:        cmd.Bool("imported"),
		Logger:          r.logger,
	})
	router := server.NewSandboxRouter(sb, r.logger)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	r.writePlain("→ Sandbox for organization %d at http://%s\n", sb.Organization().ID, addr)
	return server.Serve(ctx, addr, router, r.logger)
}

func sandboxCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sandbox",
		Usage: "Run a local in-memory API for trying out manifest operations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default: sandbox.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (default: sandbox.port)",
			},
			&cli.IntFlag{
				Name:  "polls",
				Usage: "Status requests before a task finishes (default: sandbox.polls_to_complete)",
			},
			&cli.BoolFlag{
				Name:  "wrap-uploads",
				Usage: "Answer uploads with an HTML page wrapping the JSON",
			},
			&cli.BoolFlag{
				Name:  "imported",
				Usage: "Start with a manifest imported",
			},
		},
		Action: r.Sandbox,
	}
}
