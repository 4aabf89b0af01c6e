// package services defines the HTTP clients used to talk to the subscription management server
package services

import (
	"context"
	"io"

	"github.com/desertthunder/mfx/internal/models"
)

// ManifestService is the server surface used by the manifest coordinator and the CLI.
type ManifestService interface {
	// UploadManifest sends a manifest archive and returns the import task.
	UploadManifest(ctx context.Context, filename string, r io.Reader) (models.Task, error)

	// RefreshManifest asks the server to refresh the imported manifest from its upstream.
	RefreshManifest(ctx context.Context) (models.Task, error)

	// DeleteManifest removes the imported manifest.
	DeleteManifest(ctx context.Context) (models.Task, error)

	// GetTask fetches the latest snapshot of a task.
	GetTask(ctx context.Context, id string) (models.Task, error)

	// ManifestHistory lists the manifest events for the organization.
	ManifestHistory(ctx context.Context) ([]models.HistoryEntry, error)

	// GetOrganization fetches an organization including its upstream consumer details.
	GetOrganization(ctx context.Context, id int) (*models.Organization, error)

	// UpdateRepositoryURL changes the content delivery URL of an organization.
	UpdateRepositoryURL(ctx context.Context, id int, url string) (*models.Organization, error)

	// OrganizationID returns the organization the manifest operations act on.
	OrganizationID() int
}

var _ ManifestService = (*KatelloService)(nil)
