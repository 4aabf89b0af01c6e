// package tasks implements the lifecycle of long-running manifest tasks.
//
// A [Coordinator] submits an operation, tracks the returned task through a [PollingRegistry],
// and reacts to the terminal state exactly once.
package tasks

import (
	"context"

	"github.com/desertthunder/mfx/internal/models"
)

// TaskFilterType is the only filter type understood by the registries in this package.
const TaskFilterType = "task"

// RequestFunc starts an operation on the server and returns the created task.
//
// Rejections should be reported as [*models.SubmissionFailure].
type RequestFunc func(ctx context.Context) (models.Task, error)

// Filter selects the resource a registration watches.
type Filter struct {
	Type   string
	TaskID string
}

// RegistrationID identifies a live polling registration.
type RegistrationID string

// Callback receives task snapshots for a registration.
type Callback func(task models.Task)

// PollingRegistry delivers repeated status snapshots for a task.
//
// Callbacks are never invoked synchronously from Register. Unregister is idempotent.
type PollingRegistry interface {
	Register(filter Filter, cb Callback) (RegistrationID, error)
	Unregister(id RegistrationID)
}

// OutcomeNotifier receives exactly one user facing message per terminal transition.
type OutcomeNotifier interface {
	NotifySuccess(msg string)
	NotifyError(msg string)
}

// HistoryProvider lists manifest history entries.
type HistoryProvider interface {
	ManifestHistory(ctx context.Context) ([]models.HistoryEntry, error)
}

// ResourceProvider fetches the organization mutated by manifest tasks.
type ResourceProvider interface {
	GetOrganization(ctx context.Context, id int) (*models.Organization, error)
}

// TaskFetcher fetches a single task snapshot.
type TaskFetcher interface {
	GetTask(ctx context.Context, id string) (models.Task, error)
}

// Refresher reloads state that depends on a finished task.
type Refresher interface {
	// Refresh reloads the organization, derived details and the history feed.
	Refresh(ctx context.Context) error

	// RefreshHistory reloads only the history feed.
	RefreshHistory(ctx context.Context) error
}

// Recorder persists terminal outcomes. Optional.
type Recorder interface {
	Record(op models.Operation, task models.Task, outcome models.Outcome, message string) error
}

type noopRefresher struct{}

func (noopRefresher) Refresh(context.Context) error        { return nil }
func (noopRefresher) RefreshHistory(context.Context) error { return nil }
