// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// RecordingNotifier collects success and error notifications in order.
type RecordingNotifier struct {
	mu        sync.Mutex
	Successes []string
	Errors    []string
}

func (n *RecordingNotifier) NotifySuccess(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Successes = append(n.Successes, msg)
}

func (n *RecordingNotifier) NotifyError(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Errors = append(n.Errors, msg)
}

// Counts returns the number of success and error notifications received.
func (n *RecordingNotifier) Counts() (successes, errs int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Successes), len(n.Errors)
}

// LastError returns the most recent error notification, or "" when none arrived.
func (n *RecordingNotifier) LastError() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Errors) == 0 {
		return ""
	}
	return n.Errors[len(n.Errors)-1]
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// AssertFileExists fails the test when path does not exist.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

// WriteManifest writes a fake manifest archive of size bytes into dir and returns its path.
func WriteManifest(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := make([]byte, size)
	for i := range content {
		content[i] = byte('a' + i%26)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("Failed to write manifest %s: %v", path, err)
	}
	return path
}
