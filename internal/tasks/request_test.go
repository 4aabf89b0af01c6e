package tasks

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/shared"
)

type fakeSubmitter struct {
	calls    []models.Operation
	filename string
	content  string
}

func (f *fakeSubmitter) UploadManifest(_ context.Context, filename string, r io.Reader) (models.Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Task{}, err
	}
	f.calls = append(f.calls, models.OperationImport)
	f.filename = filename
	f.content = string(data)
	return models.Task{ID: "import-1", Pending: true}, nil
}

func (f *fakeSubmitter) RefreshManifest(context.Context) (models.Task, error) {
	f.calls = append(f.calls, models.OperationRefresh)
	return models.Task{ID: "refresh-1", Pending: true}, nil
}

func (f *fakeSubmitter) DeleteManifest(context.Context) (models.Task, error) {
	f.calls = append(f.calls, models.OperationDelete)
	return models.Task{ID: "delete-1", Pending: true}, nil
}

func TestNewRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("import opens the file when run", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "acme.zip")
		if err := os.WriteFile(path, []byte("archive"), 0o644); err != nil {
			t.Fatal(err)
		}

		sub := &fakeSubmitter{}
		fn, err := NewRequest(sub, models.OperationImport, path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sub.calls) != 0 {
			t.Fatal("request should not run before it is called")
		}

		task, err := fn(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if task.ID != "import-1" {
			t.Errorf("expected import-1, got %q", task.ID)
		}
		if sub.filename != "acme.zip" || sub.content != "archive" {
			t.Errorf("unexpected upload %q %q", sub.filename, sub.content)
		}
	})

	t.Run("import without a file", func(t *testing.T) {
		_, err := NewRequest(&fakeSubmitter{}, models.OperationImport, "")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("import of a missing file fails when run", func(t *testing.T) {
		fn, err := NewRequest(&fakeSubmitter{}, models.OperationImport, filepath.Join(t.TempDir(), "nope.zip"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := fn(ctx); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not exist error, got %v", err)
		}
	})

	t.Run("refresh and delete", func(t *testing.T) {
		sub := &fakeSubmitter{}
		for _, op := range []models.Operation{models.OperationRefresh, models.OperationDelete} {
			fn, err := NewRequest(sub, op, "")
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", op, err)
			}
			if _, err := fn(ctx); err != nil {
				t.Fatalf("%s: unexpected error: %v", op, err)
			}
		}
		if len(sub.calls) != 2 || sub.calls[0] != models.OperationRefresh || sub.calls[1] != models.OperationDelete {
			t.Errorf("unexpected calls %v", sub.calls)
		}
	})

	t.Run("unknown operation", func(t *testing.T) {
		_, err := NewRequest(&fakeSubmitter{}, models.Operation("export"), "")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
