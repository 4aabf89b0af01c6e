package tasks

import "sync"

// Tracking is the scoped handle of a live registration. It is released exactly once.
type Tracking struct {
	registry PollingRegistry
	id       RegistrationID
	taskID   string
	once     sync.Once
	mu       sync.Mutex
	released bool
}

func newTracking(registry PollingRegistry, id RegistrationID, taskID string) *Tracking {
	return &Tracking{registry: registry, id: id, taskID: taskID}
}

// TaskID returns the tracked task id.
func (t *Tracking) TaskID() string {
	return t.taskID
}

// Active reports whether the registration is still live.
func (t *Tracking) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.released
}

// Release unregisters the registration. Later calls do nothing.
func (t *Tracking) Release() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		t.mu.Lock()
		t.released = true
		t.mu.Unlock()
		t.registry.Unregister(t.id)
	})
}
