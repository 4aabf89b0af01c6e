package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/shared"
)

// Submitter starts manifest tasks on the server.
type Submitter interface {
	UploadManifest(ctx context.Context, filename string, r io.Reader) (models.Task, error)
	RefreshManifest(ctx context.Context) (models.Task, error)
	DeleteManifest(ctx context.Context) (models.Task, error)
}

// NewRequest returns the [RequestFunc] that starts op. path is the manifest archive and is only used by imports;
// it is opened when the request runs.
func NewRequest(s Submitter, op models.Operation, path string) (RequestFunc, error) {
	switch op {
	case models.OperationImport:
		if path == "" {
			return nil, fmt.Errorf("%w: manifest file", shared.ErrMissingArgument)
		}
		return func(ctx context.Context) (models.Task, error) {
			f, err := os.Open(path)
			if err != nil {
				return models.Task{}, fmt.Errorf("failed to open manifest: %w", err)
			}
			defer f.Close()
			return s.UploadManifest(ctx, filepath.Base(path), f)
		}, nil
	case models.OperationRefresh:
		return s.RefreshManifest, nil
	case models.OperationDelete:
		return s.DeleteManifest, nil
	default:
		return nil, fmt.Errorf("%w: unknown operation %q", shared.ErrInvalidArgument, op)
	}
}
