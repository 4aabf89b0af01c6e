package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mfx/internal/services"
	"github.com/desertthunder/mfx/internal/tasks"
)

// session wires a coordinator to a poller and the dependent manifest state.
type session struct {
	poller   *tasks.Poller
	coord    *tasks.Coordinator
	state    *tasks.ManifestState
	progress chan tasks.ProgressUpdate
}

func (r *Runner) newSession(ctx context.Context, svc services.ManifestService, notifier tasks.OutcomeNotifier) (*session, error) {
	orgID := svc.OrganizationID()
	state := tasks.NewManifestState(svc, svc, orgID, tasks.NewHistoryFeed(r.config.History.Limit()))
	// Polls go through the API client, which already applies server.rate_limit.
	poller := tasks.NewPoller(ctx, svc, tasks.PollerOpts{
		Interval:    r.config.Polling.PollInterval(),
		MaxFailures: r.config.Polling.MaxFailures,
		Logger:      r.logger,
	})
	progress := make(chan tasks.ProgressUpdate, 64)

	coord, err := tasks.NewCoordinator(ctx, tasks.CoordinatorOpts{
		Registry:  poller,
		Notifier:  notifier,
		Refresher: state,
		Recorder:  r.recorder(orgID),
		Progress:  progress,
		Logger:    r.logger,
	})
	if err != nil {
		poller.Close()
		return nil, fmt.Errorf("failed to create coordinator: %w", err)
	}

	return &session{poller: poller, coord: coord, state: state, progress: progress}, nil
}

// Close tears down the coordinator before the poller, then closes the progress channel.
func (s *session) Close() {
	s.coord.Close()
	s.poller.Close()
	close(s.progress)
}
