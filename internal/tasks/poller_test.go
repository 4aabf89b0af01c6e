package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/shared"
)

// scriptedFetcher returns snapshots in order, repeating the last one.
type scriptedFetcher struct {
	mu        sync.Mutex
	snapshots []models.Task
	err       error
	calls     int
}

func (f *scriptedFetcher) GetTask(ctx context.Context, id string) (models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return models.Task{}, f.err
	}
	i := min(f.calls-1, len(f.snapshots)-1)
	return f.snapshots[i], nil
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func collect(t *testing.T, ch <-chan models.Task, n int) []models.Task {
	t.Helper()
	var out []models.Task
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case task := <-ch:
			out = append(out, task)
		case <-timeout:
			t.Fatalf("timed out after %d of %d snapshots", len(out), n)
		}
	}
	return out
}

func fastPoller(fetcher TaskFetcher) *Poller {
	return NewPoller(context.Background(), fetcher, PollerOpts{
		Interval:    5 * time.Millisecond,
		RateLimit:   1000,
		MaxFailures: 3,
	})
}

func TestPoller(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		p := NewPoller(context.Background(), &scriptedFetcher{}, PollerOpts{})
		defer p.Close()

		if p.opts.Interval != 2*time.Second || p.opts.MaxFailures != 5 {
			t.Errorf("unexpected defaults %+v", p.opts)
		}
		if p.limiter != nil {
			t.Error("expected no limiter without a rate limit")
		}
	})

	t.Run("Rate Limit", func(t *testing.T) {
		p := NewPoller(context.Background(), &scriptedFetcher{}, PollerOpts{RateLimit: 2})
		defer p.Close()

		if p.limiter == nil || p.limiter.Limit() != 2 {
			t.Errorf("expected a limiter of 2 req/s, got %v", p.limiter)
		}
	})

	t.Run("Register Validation", func(t *testing.T) {
		p := fastPoller(&scriptedFetcher{})
		defer p.Close()

		cb := func(models.Task) {}
		if _, err := p.Register(Filter{Type: "organization", TaskID: "t1"}, cb); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for filter type, got %v", err)
		}
		if _, err := p.Register(Filter{Type: TaskFilterType}, cb); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for empty task id, got %v", err)
		}
		if _, err := p.Register(Filter{Type: TaskFilterType, TaskID: "t1"}, nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument for nil callback, got %v", err)
		}
	})

	t.Run("Stops After Terminal Snapshot", func(t *testing.T) {
		fetcher := &scriptedFetcher{snapshots: []models.Task{
			{ID: "t1", Pending: true},
			{ID: "t1", Pending: true},
			{ID: "t1", Result: models.ResultSuccess},
		}}
		p := fastPoller(fetcher)
		defer p.Close()

		ch := make(chan models.Task, 10)
		if _, err := p.Register(Filter{Type: TaskFilterType, TaskID: "t1"}, func(task models.Task) { ch <- task }); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := collect(t, ch, 3)
		if !got[0].Pending || !got[1].Pending || got[2].Pending {
			t.Errorf("unexpected snapshot order %+v", got)
		}

		time.Sleep(30 * time.Millisecond)
		if calls := fetcher.callCount(); calls != 3 {
			t.Errorf("expected polling to stop after 3 calls, got %d", calls)
		}
		if p.Live() != 0 {
			t.Errorf("expected no live registrations, got %d", p.Live())
		}
	})

	t.Run("Fills Missing Task ID", func(t *testing.T) {
		fetcher := &scriptedFetcher{snapshots: []models.Task{{Result: models.ResultSuccess}}}
		p := fastPoller(fetcher)
		defer p.Close()

		ch := make(chan models.Task, 1)
		p.Register(Filter{Type: TaskFilterType, TaskID: "t9"}, func(task models.Task) { ch <- task })

		if got := collect(t, ch, 1); got[0].ID != "t9" {
			t.Errorf("expected id t9, got %q", got[0].ID)
		}
	})

	t.Run("Escalates Repeated Failures", func(t *testing.T) {
		fetcher := &scriptedFetcher{err: errors.New("connection refused")}
		p := fastPoller(fetcher)
		defer p.Close()

		ch := make(chan models.Task, 10)
		p.Register(Filter{Type: TaskFilterType, TaskID: "t1"}, func(task models.Task) { ch <- task })

		got := collect(t, ch, 1)[0]
		if got.Pending || got.Result != models.ResultError || got.ID != "t1" {
			t.Errorf("expected terminal error snapshot, got %+v", got)
		}
		if len(got.Humanized.Errors) != 1 || !strings.Contains(got.Humanized.Errors[0], "connection refused") {
			t.Errorf("expected last error in snapshot, got %v", got.Humanized.Errors)
		}
		if calls := fetcher.callCount(); calls != 3 {
			t.Errorf("expected 3 attempts, got %d", calls)
		}
	})

	t.Run("Unregister Stops Callbacks", func(t *testing.T) {
		fetcher := &scriptedFetcher{snapshots: []models.Task{{ID: "t1", Pending: true}}}
		p := fastPoller(fetcher)
		defer p.Close()

		ch := make(chan models.Task, 100)
		id, _ := p.Register(Filter{Type: TaskFilterType, TaskID: "t1"}, func(task models.Task) { ch <- task })
		collect(t, ch, 1)

		p.Unregister(id)
		p.Unregister(id)
		p.Unregister("unknown")

		time.Sleep(20 * time.Millisecond)
		calls := fetcher.callCount()
		time.Sleep(30 * time.Millisecond)
		if fetcher.callCount() != calls {
			t.Error("expected polling to stop after unregister")
		}
		if p.Live() != 0 {
			t.Errorf("expected no live registrations, got %d", p.Live())
		}
	})

	t.Run("Close", func(t *testing.T) {
		fetcher := &scriptedFetcher{snapshots: []models.Task{{ID: "t1", Pending: true}}}
		p := fastPoller(fetcher)

		p.Register(Filter{Type: TaskFilterType, TaskID: "t1"}, func(models.Task) {})
		p.Register(Filter{Type: TaskFilterType, TaskID: "t2"}, func(models.Task) {})
		p.Close()

		if p.Live() != 0 {
			t.Errorf("expected no live registrations, got %d", p.Live())
		}
		if _, err := p.Register(Filter{Type: TaskFilterType, TaskID: "t3"}, func(models.Task) {}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable after close, got %v", err)
		}
	})
}
