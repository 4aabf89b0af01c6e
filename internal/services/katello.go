package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/mfx/internal/models"
	"github.com/desertthunder/mfx/internal/shared"
)

const (
	katelloPrefix      = "/katello/api/v2"
	foremanTasksPrefix = "/foreman_tasks/api/tasks"
	uploadField        = "content"
)

// KatelloService implements [ManifestService] on top of an [APIService].
type KatelloService struct {
	api            *APIService
	organizationID int
}

// NewKatelloService creates a service bound to one organization.
func NewKatelloService(api *APIService, organizationID int) *KatelloService {
	return &KatelloService{api: api, organizationID: organizationID}
}

// OrganizationID is the organization every manifest request targets.
func (k *KatelloService) OrganizationID() int { return k.organizationID }

func (k *KatelloService) subscriptionsPath(action string) string {
	return fmt.Sprintf("%s/organizations/%d/subscriptions/%s", katelloPrefix, k.organizationID, action)
}

func organizationPath(id int) string {
	return fmt.Sprintf("%s/organizations/%d", katelloPrefix, id)
}

// UploadManifest posts the manifest archive as a multipart form.
func (k *KatelloService) UploadManifest(ctx context.Context, filename string, r io.Reader) (models.Task, error) {
	resp, err := k.api.PostMultipart(ctx, k.subscriptionsPath("upload"), uploadField, filename, r)
	if err != nil {
		return models.Task{}, fmt.Errorf("%w: upload manifest: %v", shared.ErrAPIRequest, err)
	}
	return DecodeSubmission(models.OperationImport, resp)
}

// RefreshManifest triggers a manifest refresh.
func (k *KatelloService) RefreshManifest(ctx context.Context) (models.Task, error) {
	resp, err := k.api.Put(ctx, k.subscriptionsPath("refresh_manifest"), []byte("{}"))
	if err != nil {
		return models.Task{}, fmt.Errorf("%w: refresh manifest: %v", shared.ErrAPIRequest, err)
	}
	return DecodeSubmission(models.OperationRefresh, resp)
}

// DeleteManifest triggers a manifest deletion.
func (k *KatelloService) DeleteManifest(ctx context.Context) (models.Task, error) {
	resp, err := k.api.Post(ctx, k.subscriptionsPath("delete_manifest"), []byte("{}"))
	if err != nil {
		return models.Task{}, fmt.Errorf("%w: delete manifest: %v", shared.ErrAPIRequest, err)
	}
	return DecodeSubmission(models.OperationDelete, resp)
}

// GetTask fetches the current snapshot of a task.
func (k *KatelloService) GetTask(ctx context.Context, id string) (models.Task, error) {
	if id == "" {
		return models.Task{}, fmt.Errorf("%w: empty task id", shared.ErrInvalidTask)
	}

	resp, err := k.api.Get(ctx, foremanTasksPrefix+"/"+url.PathEscape(id))
	if err != nil {
		return models.Task{}, fmt.Errorf("%w: get task %s: %v", shared.ErrAPIRequest, id, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return models.Task{}, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	if !resp.OK() {
		return models.Task{}, statusError("get task", resp)
	}

	var task models.Task
	if err := resp.Decode(&task); err != nil {
		return models.Task{}, fmt.Errorf("%w: task %s: %v", shared.ErrDecodeResponse, id, err)
	}
	return task, nil
}

// ManifestHistory lists manifest events, newest first as returned by the server.
func (k *KatelloService) ManifestHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	resp, err := k.api.Get(ctx, k.subscriptionsPath("manifest_history"))
	if err != nil {
		return nil, fmt.Errorf("%w: manifest history: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return nil, statusError("manifest history", resp)
	}

	entries, err := decodeList[models.HistoryEntry](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: manifest history: %v", shared.ErrDecodeResponse, err)
	}
	return entries, nil
}

// GetOrganization fetches an organization.
func (k *KatelloService) GetOrganization(ctx context.Context, id int) (*models.Organization, error) {
	resp, err := k.api.Get(ctx, organizationPath(id))
	if err != nil {
		return nil, fmt.Errorf("%w: get organization %d: %v", shared.ErrAPIRequest, id, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %d", shared.ErrOrganizationMissing, id)
	}
	if !resp.OK() {
		return nil, statusError("get organization", resp)
	}

	var org models.Organization
	if err := resp.Decode(&org); err != nil {
		return nil, fmt.Errorf("%w: organization %d: %v", shared.ErrDecodeResponse, id, err)
	}
	return &org, nil
}

// repositoryURLUpdate is the only body accepted for a repository URL change.
type repositoryURLUpdate struct {
	ID                  int    `json:"id"`
	RedhatRepositoryURL string `json:"redhat_repository_url"`
}

// UpdateRepositoryURL saves a new content delivery URL. Rejections are returned as [*RepositoryURLError].
func (k *KatelloService) UpdateRepositoryURL(ctx context.Context, id int, repoURL string) (*models.Organization, error) {
	body, err := json.Marshal(repositoryURLUpdate{ID: id, RedhatRepositoryURL: repoURL})
	if err != nil {
		return nil, fmt.Errorf("failed to encode update: %w", err)
	}

	resp, err := k.api.Put(ctx, organizationPath(id), body)
	if err != nil {
		return nil, fmt.Errorf("%w: update organization %d: %v", shared.ErrAPIRequest, id, err)
	}
	if !resp.OK() {
		return nil, decodeRepositoryURLError(resp)
	}

	var org models.Organization
	if err := resp.Decode(&org); err != nil {
		return nil, fmt.Errorf("%w: organization %d: %v", shared.ErrDecodeResponse, id, err)
	}
	return &org, nil
}

const repositoryURLErrorPrefix = "An error occurred saving the URL: "

// RepositoryURLError carries the messages of a rejected repository URL update.
type RepositoryURLError struct {
	StatusCode int
	Messages   []string
}

// Notifications returns one user facing message per server message.
func (e *RepositoryURLError) Notifications() []string {
	out := make([]string, 0, len(e.Messages))
	for _, msg := range e.Messages {
		out = append(out, repositoryURLErrorPrefix+msg)
	}
	return out
}

func (e *RepositoryURLError) Error() string {
	if len(e.Messages) == 0 {
		return repositoryURLErrorPrefix + http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", joinMessages(e.Notifications()), e.StatusCode)
}

func decodeRepositoryURLError(resp *APIResponse) error {
	var body struct {
		Error struct {
			Message      string   `json:"message"`
			FullMessages []string `json:"full_messages"`
		} `json:"error"`
		DisplayMessage string `json:"displayMessage"`
	}

	urlErr := &RepositoryURLError{StatusCode: resp.StatusCode}
	if err := resp.Decode(&body); err != nil {
		return urlErr
	}

	switch {
	case len(body.Error.FullMessages) > 0:
		urlErr.Messages = body.Error.FullMessages
	case body.Error.Message != "":
		urlErr.Messages = []string{body.Error.Message}
	case body.DisplayMessage != "":
		urlErr.Messages = []string{body.DisplayMessage}
	}
	return urlErr
}

// statusError describes an unexpected status, preferring the server's display message.
func statusError(action string, resp *APIResponse) error {
	var body struct {
		DisplayMessage string `json:"displayMessage"`
	}
	if err := resp.Decode(&body); err == nil && body.DisplayMessage != "" {
		return fmt.Errorf("%w: %s: status %d: %s", shared.ErrAPIRequest, action, resp.StatusCode, body.DisplayMessage)
	}
	return fmt.Errorf("%w: %s: status %d", shared.ErrAPIRequest, action, resp.StatusCode)
}

// decodeList accepts a bare JSON array or a paginated {"results": [...]} envelope.
func decodeList[T any](data []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		return nil, errors.New("response has no results")
	}
	return page.Results, nil
}
