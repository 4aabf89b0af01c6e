package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mfx/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the server and prints the response.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	api, err := r.apiService()
	if err != nil {
		return err
	}

	r.logger.Debug("GET request", "path", path)

	resp, err := api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("compact"))
	}

	r.writeRaw(resp.Body)
	return r.writeRaw([]byte("\n"))
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the server",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the JSON response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "compact",
						Usage: "Print JSON on a single line",
					},
				},
				Action: r.APIGet,
			},
		},
	}
}
