package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/shared"
)

// CoordinatorOpts contains the collaborators of a [Coordinator].
type CoordinatorOpts struct {
	Registry  PollingRegistry       // Required
	Notifier  OutcomeNotifier       // Required
	Refresher Refresher             // Dependent state reload (default: no-op)
	Recorder  Recorder              // Optional outcome persistence
	Progress  chan<- ProgressUpdate // Optional, written without blocking
	Logger    *log.Logger
}

// State is a read-only view of the coordinator for display layers.
type State struct {
	Operation    models.Operation
	Task         *models.Task // nil when idle
	StatusText   string
	Pending      bool
	SubmitFailed bool
	FieldErrors  map[string][]string
	Outcome      *models.Outcome // Last terminal outcome
}

// doneSignal fires once when the current operation reaches a final state.
type doneSignal struct {
	ch   chan struct{}
	once sync.Once
}

func newDoneSignal() *doneSignal {
	return &doneSignal{ch: make(chan struct{})}
}

func (s *doneSignal) fire() {
	if s == nil {
		return
	}
	s.once.Do(func() { close(s.ch) })
}

// Coordinator drives one manifest operation at a time from submission to its terminal outcome.
//
// State is guarded by a mutex; notifications, refreshes, recording and unregistering happen after it is released.
// Poll callbacks may arrive on any goroutine.
type Coordinator struct {
	ctx       context.Context
	cancel    context.CancelFunc
	registry  PollingRegistry
	notifier  OutcomeNotifier
	refresher Refresher
	recorder  Recorder
	progress  chan<- ProgressUpdate
	logger    *log.Logger

	mu           sync.Mutex
	op           models.Operation
	task         models.Task
	hasTask      bool
	statusText   string
	tracking     *Tracking
	submitFailed bool
	submitErr    error
	fieldErrors  map[string][]string
	last         *models.Outcome
	signal       *doneSignal
	abandoned    bool
	closed       bool
	inflight     sync.WaitGroup
}

// NewCoordinator creates a coordinator. ctx bounds submissions and the dependent refreshes run after a
// task finishes; [Coordinator.Close] cancels both.
func NewCoordinator(ctx context.Context, opts CoordinatorOpts) (*Coordinator, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("%w: polling registry", shared.ErrMissingArgument)
	}
	if opts.Notifier == nil {
		return nil, fmt.Errorf("%w: notifier", shared.ErrMissingArgument)
	}
	if opts.Refresher == nil {
		opts.Refresher = noopRefresher{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Coordinator{
		ctx:       ctx,
		cancel:    cancel,
		registry:  opts.Registry,
		notifier:  opts.Notifier,
		refresher: opts.Refresher,
		recorder:  opts.Recorder,
		progress:  opts.Progress,
		logger:    opts.Logger,
	}, nil
}

// Submit starts op through fn and begins tracking the returned task.
//
// It fails with [shared.ErrTaskInFlight] while the current task is pending.
// A rejected submission is reported through the notifier and returned wrapped in [shared.ErrSubmissionFailed].
func (c *Coordinator) Submit(ctx context.Context, op models.Operation, fn RequestFunc) (models.Task, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.Task{}, shared.ErrCoordinatorClosed
	}
	if c.hasTask && c.task.Pending {
		current := c.op
		c.mu.Unlock()
		return models.Task{}, fmt.Errorf("%w: %s is still running", shared.ErrTaskInFlight, current)
	}

	leftover := c.tracking
	c.tracking = nil
	c.op = op
	c.task = models.NewPlaceholderTask()
	c.hasTask = true
	c.statusText = op.StatusText()
	c.submitFailed = false
	c.submitErr = nil
	c.fieldErrors = nil
	c.last = nil
	c.abandoned = false
	c.signal = newDoneSignal()
	c.inflight.Add(1)
	c.mu.Unlock()

	leftover.Release()
	sendProgress(c.progress, submitUpdate(op))
	c.logger.Info("submitting operation", "operation", op)
	c.inflight.Done()

	// Close does not wait for the request; it cancels it.
	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	task, err := fn(reqCtx)
	stop()
	cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("submission finished after close", "operation", op, "error", err)
		return models.Task{}, shared.ErrCoordinatorClosed
	}
	c.inflight.Add(1)
	c.mu.Unlock()
	defer c.inflight.Done()

	if err != nil {
		c.failSubmission(op, err)
		return models.Task{}, fmt.Errorf("%w: %w", shared.ErrSubmissionFailed, err)
	}

	if err := c.BeginTracking(task); err != nil {
		c.failSubmission(op, err)
		return models.Task{}, err
	}
	return task, nil
}

func (c *Coordinator) failSubmission(op models.Operation, err error) {
	msg := err.Error()
	var fieldErrors map[string][]string
	var failure *models.SubmissionFailure
	if errors.As(err, &failure) {
		msg = failure.Message()
		fieldErrors = failure.Errors
	}

	c.mu.Lock()
	c.submitFailed = true
	c.submitErr = err
	c.fieldErrors = fieldErrors
	c.task = models.Task{}
	c.hasTask = false
	c.statusText = ""
	signal := c.signal
	closed := c.closed
	c.mu.Unlock()

	c.logger.Warn("submission failed", "operation", op, "error", err)
	if !closed {
		c.notifier.NotifyError(op.SubmitErrorPrefix() + msg)
		sendProgress(c.progress, submitFailedUpdate(op, msg))
	}
	signal.fire()
}

// BeginTracking registers for status updates of task.
//
// It fails with [shared.ErrInvalidTask] for a task without an id and with [shared.ErrTrackingActive]
// when a registration is already live.
func (c *Coordinator) BeginTracking(task models.Task) error {
	if task.ID == "" {
		return fmt.Errorf("%w: task has no id", shared.ErrInvalidTask)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return shared.ErrCoordinatorClosed
	}
	if c.tracking != nil && c.tracking.Active() {
		c.mu.Unlock()
		return fmt.Errorf("%w: already tracking %s", shared.ErrTrackingActive, c.tracking.TaskID())
	}

	id, err := c.registry.Register(Filter{Type: TaskFilterType, TaskID: task.ID}, c.OnUpdate)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to register task %s: %w", task.ID, err)
	}

	c.tracking = newTracking(c.registry, id, task.ID)
	c.task = task
	c.task.Pending = true
	c.hasTask = true
	if c.statusText == "" {
		c.statusText = c.op.StatusText()
	}
	if c.signal == nil || c.last != nil || c.submitErr != nil || c.abandoned {
		c.signal = newDoneSignal()
		c.last = nil
		c.submitErr = nil
		c.abandoned = false
	}
	op := c.op
	c.mu.Unlock()

	c.logger.Debug("tracking task", "task", task.ID, "registration", id)
	sendProgress(c.progress, trackingUpdate(op, task))
	return nil
}

// OnUpdate handles a task snapshot delivered by the registry.
//
// Snapshots for other tasks, for a task that already reached its terminal state, or
// arriving after Close are ignored.
func (c *Coordinator) OnUpdate(task models.Task) {
	c.mu.Lock()
	if c.closed || c.tracking == nil || c.tracking.TaskID() != task.ID {
		c.mu.Unlock()
		c.logger.Debug("ignoring task update", "task", task.ID)
		return
	}
	c.task = task
	op := c.op
	if task.Pending {
		c.inflight.Add(1)
		c.mu.Unlock()
		sendProgress(c.progress, pollUpdate(op, task))
		c.inflight.Done()
		return
	}

	tracking := c.tracking
	c.tracking = nil
	c.statusText = ""
	outcome := models.Classify(task)
	c.last = &outcome
	signal := c.signal
	c.inflight.Add(1)
	c.mu.Unlock()
	defer c.inflight.Done()

	tracking.Release()

	var msg string
	if outcome.Succeeded() {
		msg = op.SuccessMessage()
		c.logger.Info("task succeeded", "operation", op, "task", task.ID)
		c.notifier.NotifySuccess(msg)
		if err := c.refresher.Refresh(c.ctx); err != nil {
			c.logger.Warn("refresh after task failed", "task", task.ID, "error", err)
		}
	} else {
		if outcome.Unrecognized() {
			c.logger.Warn("unrecognized task result", "task", task.ID, "result", task.Result)
		}
		msg = outcome.Describe(op.FailureMessage())
		c.logger.Error("task failed", "operation", op, "task", task.ID, "result", outcome.Kind)
		c.notifier.NotifyError(msg)
		if err := c.refresher.RefreshHistory(c.ctx); err != nil {
			c.logger.Warn("history refresh after task failed", "task", task.ID, "error", err)
		}
	}

	if c.recorder != nil {
		if err := c.recorder.Record(op, task, outcome, msg); err != nil {
			c.logger.Warn("failed to record task outcome", "task", task.ID, "error", err)
		}
	}

	sendProgress(c.progress, completeUpdate(op, task, outcome))
	signal.fire()
}

// UnregisterTracking releases the live registration, if any. It is safe to call repeatedly.
//
// Releasing a task that is still pending abandons it: the coordinator returns to idle, an error
// notification is sent and waiters receive [shared.ErrTimeout]. The server-side task keeps running.
func (c *Coordinator) UnregisterTracking() {
	c.mu.Lock()
	tracking := c.tracking
	c.tracking = nil
	if tracking == nil || c.closed || !c.hasTask || !c.task.Pending {
		c.mu.Unlock()
		tracking.Release()
		return
	}

	op := c.op
	id := tracking.TaskID()
	c.task = models.Task{}
	c.hasTask = false
	c.statusText = ""
	c.abandoned = true
	signal := c.signal
	c.inflight.Add(1)
	c.mu.Unlock()
	defer c.inflight.Done()

	tracking.Release()

	msg := fmt.Sprintf("%s Stopped waiting for task %s.", op.FailureMessage(), id)
	c.logger.Warn("task abandoned", "operation", op, "task", id)
	c.notifier.NotifyError(msg)
	sendProgress(c.progress, abandonedUpdate(op, msg))
	signal.fire()
}

// Close tears the coordinator down. Updates arriving afterwards are ignored and
// pending waiters are released. Close waits for in-flight side effects to finish.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	tracking := c.tracking
	c.tracking = nil
	signal := c.signal
	c.mu.Unlock()

	c.cancel()
	tracking.Release()
	signal.fire()
	c.inflight.Wait()
}

// Wait blocks until the current operation finishes and returns its outcome.
//
// A rejected submission returns its error. ctx expiring returns [shared.ErrTimeout].
func (c *Coordinator) Wait(ctx context.Context) (models.Outcome, error) {
	c.mu.Lock()
	signal := c.signal
	c.mu.Unlock()

	if signal == nil {
		return models.Outcome{}, fmt.Errorf("%w: no operation submitted", shared.ErrInvalidTask)
	}

	select {
	case <-signal.ch:
	case <-ctx.Done():
		return models.Outcome{}, fmt.Errorf("%w: %v", shared.ErrTimeout, ctx.Err())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.submitErr != nil:
		return models.Outcome{}, fmt.Errorf("%w: %w", shared.ErrSubmissionFailed, c.submitErr)
	case c.abandoned:
		return models.Outcome{}, fmt.Errorf("%w: stopped tracking %s", shared.ErrTimeout, c.op)
	case c.last != nil:
		return *c.last, nil
	default:
		return models.Outcome{}, shared.ErrCoordinatorClosed
	}
}

// IsTaskPending reports whether the current task is pending.
func (c *Coordinator) IsTaskPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasTask && c.task.Pending
}

// Snapshot returns a copy of the coordinator state.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Operation:    c.op,
		StatusText:   c.statusText,
		SubmitFailed: c.submitFailed,
		FieldErrors:  maps.Clone(c.fieldErrors),
	}
	if c.hasTask {
		task := c.task
		s.Task = &task
		s.Pending = task.Pending
	}
	if c.last != nil {
		outcome := *c.last
		s.Outcome = &outcome
	}
	return s
}
