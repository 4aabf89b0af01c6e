package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/shared"
	"golang.org/x/time/rate"
)

// PollerOpts contains configuration for a [Poller].
type PollerOpts struct {
	Interval    time.Duration // Delay between polls (default: 2s)
	RateLimit   float64       // Requests per second shared by all registrations, zero disables limiting
	MaxFailures int           // Consecutive fetch errors before giving up (default: 5)
	Logger      *log.Logger
}

// Poller is a [PollingRegistry] that fetches task snapshots on a fixed interval.
//
// Each registration runs in its own goroutine: the first poll happens immediately, later ones every Interval.
// A terminal snapshot ends the registration. After MaxFailures consecutive fetch errors a synthetic
// terminal error snapshot carrying the last error is delivered instead.
type Poller struct {
	ctx     context.Context
	cancel  context.CancelFunc
	fetcher TaskFetcher
	opts    PollerOpts
	limiter *rate.Limiter

	mu     sync.Mutex
	regs   map[RegistrationID]context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

var _ PollingRegistry = (*Poller)(nil)

// NewPoller creates a poller whose registrations stop when ctx is done.
func NewPoller(ctx context.Context, fetcher TaskFetcher, opts PollerOpts) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = 5
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Poller{
		ctx:     ctx,
		cancel:  cancel,
		fetcher: fetcher,
		opts:    opts,
		limiter: limiter,
		regs:    make(map[RegistrationID]context.CancelFunc),
	}
}

// Register starts polling the task selected by filter.
func (p *Poller) Register(filter Filter, cb Callback) (RegistrationID, error) {
	if filter.Type != TaskFilterType {
		return "", fmt.Errorf("%w: unsupported filter type %q", shared.ErrInvalidArgument, filter.Type)
	}
	if filter.TaskID == "" {
		return "", fmt.Errorf("%w: filter has no task id", shared.ErrInvalidArgument)
	}
	if cb == nil {
		return "", fmt.Errorf("%w: callback", shared.ErrMissingArgument)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", fmt.Errorf("%w: poller closed", shared.ErrServiceUnavailable)
	}

	id := RegistrationID(shared.GenerateID())
	ctx, cancel := context.WithCancel(p.ctx)
	p.regs[id] = cancel
	p.wg.Add(1)
	go p.run(ctx, id, filter.TaskID, cb)

	p.opts.Logger.Debug("registered", "registration", id, "task", filter.TaskID)
	return id, nil
}

// Unregister stops a registration. Unknown or already stopped ids are ignored.
func (p *Poller) Unregister(id RegistrationID) {
	p.mu.Lock()
	cancel, ok := p.regs[id]
	delete(p.regs, id)
	p.mu.Unlock()

	if ok {
		cancel()
		p.opts.Logger.Debug("unregistered", "registration", id)
	}
}

// Live returns the number of running registrations.
func (p *Poller) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.regs)
}

// Close stops every registration and waits for their goroutines.
//
// It must not be called from a callback.
func (p *Poller) Close() {
	p.mu.Lock()
	p.closed = true
	for id, cancel := range p.regs {
		cancel()
		delete(p.regs, id)
	}
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context, id RegistrationID, taskID string, cb Callback) {
	defer p.wg.Done()
	defer p.forget(id)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	failures := 0
	for {
		task, err := p.fetch(ctx, taskID)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			failures++
			p.opts.Logger.Warn("poll failed", "task", taskID, "attempt", failures, "error", err)
			if failures >= p.opts.MaxFailures {
				cb(failedSnapshot(taskID, err))
				return
			}
		} else {
			failures = 0
			cb(task)
			if task.Terminal() {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) fetch(ctx context.Context, taskID string) (models.Task, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return models.Task{}, err
		}
	}

	task, err := p.fetcher.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if task.ID == "" {
		task.ID = taskID
	}
	return task, nil
}

func (p *Poller) forget(id RegistrationID) {
	p.mu.Lock()
	cancel, ok := p.regs[id]
	delete(p.regs, id)
	p.mu.Unlock()

	if ok {
		cancel()
	}
}

// failedSnapshot ends tracking of a task the poller could not reach.
func failedSnapshot(taskID string, err error) models.Task {
	return models.Task{
		ID:      taskID,
		Pending: false,
		Result:  models.ResultError,
		Humanized: models.Humanized{
			Errors: []string{fmt.Sprintf("Unable to fetch task status: %v", err)},
		},
	}
}
