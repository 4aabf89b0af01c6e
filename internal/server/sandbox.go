package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mfx/internal/models"
	"github.com/google/uuid"
)

const (
	sandboxWebURL = "access.redhat.com/management/distributors"
	sandboxAPIURL = "https://subscription.rhsm.redhat.com/subscription/consumers/"

	entityTooLargePage = `<html>
<head><title>413 Request Entity Too Large</title></head>
<body><center><h1>413 Request Entity Too Large</h1></center></body>
</html>`
)

var taskLabels = map[models.Operation]string{
	models.OperationImport:  "Actions::Katello::Organization::ManifestImport",
	models.OperationRefresh: "Actions::Katello::Organization::ManifestRefresh",
	models.OperationDelete:  "Actions::Katello::Organization::ManifestDelete",
}

var historyMessages = map[models.Operation]string{
	models.OperationImport:  "Manifest imported",
	models.OperationRefresh: "Manifest refreshed",
	models.OperationDelete:  "Subscriptions deleted",
}

// SandboxOpts contains configuration for a [Sandbox].
type SandboxOpts struct {
	OrganizationID  int   // Organization served by the sandbox (default: 1)
	PollsToComplete int   // Status requests before a task finishes (default: 3)
	MaxUploadBytes  int64 // Upload body limit (default: 1 MiB)
	WrapUploads     bool  // Answer uploads with an HTML page wrapping the JSON, like an iframe upload
	Imported        bool  // Start with a manifest imported
	Logger          *log.Logger
}

// ScriptedOutcome is the terminal state forced onto the next created task.
type ScriptedOutcome struct {
	Result models.Result
	Output string
	Errors []string
}

type rejection struct {
	status int
	body   any
}

type sandboxTask struct {
	op      models.Operation
	task    models.Task
	polls   int
	outcome ScriptedOutcome
	upload  string
}

type route struct {
	method string
	path   string
	fn     http.HandlerFunc
}

// Sandbox is an in-memory simulation of the organization, subscription and task endpoints.
type Sandbox struct {
	opts   SandboxOpts
	routes []route
	mux    *http.ServeMux

	mu      sync.Mutex
	org     models.Organization
	tasks   map[string]*sandboxTask
	history []models.HistoryEntry
	scripts []ScriptedOutcome
	reject  *rejection
}

var _ Handler = (*Sandbox)(nil)

// NewSandbox creates a sandbox serving a single organization.
func NewSandbox(opts SandboxOpts) *Sandbox {
	if opts.OrganizationID <= 0 {
		opts.OrganizationID = 1
	}
	if opts.PollsToComplete <= 0 {
		opts.PollsToComplete = 3
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 1 << 20
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	s := &Sandbox{
		opts:  opts,
		mux:   http.NewServeMux(),
		tasks: make(map[string]*sandboxTask),
		org: models.Organization{
			ID:                  opts.OrganizationID,
			Name:                "Default Organization",
			Label:               "Default_Organization",
			RedhatRepositoryURL: "https://cdn.redhat.com",
		},
	}
	if opts.Imported {
		s.org.OwnerDetails.UpstreamConsumer = newUpstream("sandbox-distributor")
	}

	orgPath := "/katello/api/v2/organizations/{org}"
	s.routes = []route{
		{http.MethodGet, orgPath, s.getOrganization},
		{http.MethodPut, orgPath, s.updateOrganization},
		{http.MethodPost, orgPath + "/subscriptions/upload", s.upload},
		{http.MethodPut, orgPath + "/subscriptions/refresh_manifest", s.refresh},
		{http.MethodPost, orgPath + "/subscriptions/delete_manifest", s.delete},
		{http.MethodGet, orgPath + "/subscriptions/manifest_history", s.manifestHistory},
		{http.MethodGet, "/foreman_tasks/api/tasks/{id}", s.getTask},
	}
	for _, rt := range s.routes {
		s.mux.HandleFunc(rt.method+" "+rt.path, rt.fn)
	}
	return s
}

// Routes implements [Handler].
func (s *Sandbox) Routes() []string {
	patterns := make([]string, 0, len(s.routes))
	for _, rt := range s.routes {
		patterns = append(patterns, rt.method+" "+rt.path)
	}
	return patterns
}

// ServeHTTP implements [http.Handler].
func (s *Sandbox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// NewSandboxRouter mounts s on a [BasicRouter] with request logging.
func NewSandboxRouter(s *Sandbox, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	if logger != nil {
		router.Use(RequestLogger(logger))
	}
	router.Handler(s)
	return router
}

// Script queues the terminal state of the next created task. Queued outcomes are used in order;
// tasks created without one succeed.
func (s *Sandbox) Script(result models.Result, output string, errs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts = append(s.scripts, ScriptedOutcome{Result: result, Output: output, Errors: errs})
}

// RejectNext makes the next manifest submission fail with status and the JSON encoding of body.
func (s *Sandbox) RejectNext(status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject = &rejection{status: status, body: body}
}

// Organization returns a copy of the served organization.
func (s *Sandbox) Organization() models.Organization {
	s.mu.Lock()
	defer s.mu.Unlock()
	org := s.org
	if up := org.OwnerDetails.UpstreamConsumer; up != nil {
		cp := *up
		org.OwnerDetails.UpstreamConsumer = &cp
	}
	return org
}

// History returns the manifest history, newest first.
func (s *Sandbox) History() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.HistoryEntry{}, s.history...)
}

// TaskCount returns the number of tasks created so far.
func (s *Sandbox) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Sandbox) checkOrganization(w http.ResponseWriter, r *http.Request) bool {
	id, err := strconv.Atoi(r.PathValue("org"))
	if err != nil || id != s.opts.OrganizationID {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"displayMessage": fmt.Sprintf("Resource organization not found by id '%s'", r.PathValue("org")),
		})
		return false
	}
	return true
}

func (s *Sandbox) getOrganization(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrganization(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.Organization())
}

// updateOrganization accepts only the repository URL change.
func (s *Sandbox) updateOrganization(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrganization(w, r) {
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeOrganizationError(w, "Request body is not valid JSON")
		return
	}
	for key := range body {
		if key != "id" && key != "redhat_repository_url" {
			writeOrganizationError(w, fmt.Sprintf("Unpermitted parameter: %s", key))
			return
		}
	}

	var repoURL string
	if raw, ok := body["redhat_repository_url"]; ok {
		if err := json.Unmarshal(raw, &repoURL); err != nil {
			writeOrganizationError(w, "Redhat repository url must be a string")
			return
		}
	}
	u, err := url.Parse(repoURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeOrganizationError(w, "Redhat repository url is invalid")
		return
	}

	s.mu.Lock()
	s.org.RedhatRepositoryURL = repoURL
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, s.Organization())
}

func (s *Sandbox) upload(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrganization(w, r) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 10); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			io.WriteString(w, entityTooLargePage)
			return
		}
		s.writeSubmission(w, http.StatusBadRequest, map[string]any{
			"displayMessage": "Invalid upload request",
			"errors":         []string{err.Error()},
		})
		return
	}

	file, header, err := r.FormFile("content")
	if err != nil {
		s.writeSubmission(w, http.StatusUnprocessableEntity, map[string]any{
			"displayMessage": "No manifest file was provided",
			"errors":         map[string][]string{"content": {"can't be blank"}},
		})
		return
	}
	defer file.Close()

	if rej := s.takeRejection(); rej != nil {
		s.writeSubmission(w, rej.status, rej.body)
		return
	}

	task := s.createTask(models.OperationImport, header.Filename)
	s.writeSubmission(w, http.StatusAccepted, task)
}

func (s *Sandbox) refresh(w http.ResponseWriter, r *http.Request) {
	s.submitWithManifest(w, r, models.OperationRefresh)
}

func (s *Sandbox) delete(w http.ResponseWriter, r *http.Request) {
	s.submitWithManifest(w, r, models.OperationDelete)
}

func (s *Sandbox) submitWithManifest(w http.ResponseWriter, r *http.Request, op models.Operation) {
	if !s.checkOrganization(w, r) {
		return
	}
	if rej := s.takeRejection(); rej != nil {
		writeJSON(w, rej.status, rej.body)
		return
	}

	s.mu.Lock()
	imported := s.org.OwnerDetails.UpstreamConsumer != nil
	s.mu.Unlock()
	if !imported {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"displayMessage": "No manifest is imported for this organization",
			"errors":         []string{"No manifest is imported for this organization"},
		})
		return
	}

	writeJSON(w, http.StatusAccepted, s.createTask(op, ""))
}

func (s *Sandbox) manifestHistory(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrganization(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.History())
}

// getTask counts the request and finishes the task once it was polled often enough.
func (s *Sandbox) getTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	st, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{
			"displayMessage": fmt.Sprintf("Resource task not found by id '%s'", id),
		})
		return
	}

	if st.task.Pending {
		st.polls++
		st.task.Progress = float64(st.polls) / float64(s.opts.PollsToComplete)
		if st.polls >= s.opts.PollsToComplete {
			s.finish(st)
		}
	}
	task := st.task
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, task)
}

func (s *Sandbox) takeRejection() *rejection {
	s.mu.Lock()
	defer s.mu.Unlock()
	rej := s.reject
	s.reject = nil
	return rej
}

func (s *Sandbox) createTask(op models.Operation, upload string) models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := ScriptedOutcome{Result: models.ResultSuccess}
	if len(s.scripts) > 0 {
		outcome = s.scripts[0]
		s.scripts = s.scripts[1:]
	}

	started := time.Now().UTC()
	st := &sandboxTask{
		op:      op,
		outcome: outcome,
		upload:  upload,
		task: models.Task{
			ID:        uuid.NewString(),
			Label:     taskLabels[op],
			Pending:   true,
			Result:    models.ResultPending,
			State:     "running",
			StartedAt: &started,
		},
	}
	s.tasks[st.task.ID] = st

	s.opts.Logger.Debug("task created", "task", st.task.ID, "operation", op)
	return st.task
}

// finish applies the scripted outcome. Callers hold s.mu.
func (s *Sandbox) finish(st *sandboxTask) {
	ended := time.Now().UTC()
	st.task.Pending = false
	st.task.State = "stopped"
	st.task.Progress = 1
	st.task.EndedAt = &ended
	st.task.Result = st.outcome.Result
	st.task.Humanized = models.Humanized{Output: st.outcome.Output, Errors: st.outcome.Errors}

	entry := models.HistoryEntry{
		ID:      uuid.NewString(),
		Status:  "SUCCESS",
		Created: ended,
	}
	if st.outcome.Result == models.ResultSuccess {
		entry.StatusMessage = historyMessages[st.op]
		switch st.op {
		case models.OperationImport:
			s.org.OwnerDetails.UpstreamConsumer = newUpstream(strings.TrimSuffix(st.upload, ".zip"))
		case models.OperationDelete:
			s.org.OwnerDetails.UpstreamConsumer = nil
		}
	} else {
		entry.Status = "FAILURE"
		entry.StatusMessage = failureHistoryMessage(st.op, st.outcome)
	}
	s.history = append([]models.HistoryEntry{entry}, s.history...)

	s.opts.Logger.Debug("task finished", "task", st.task.ID, "result", st.task.Result)
}

func failureHistoryMessage(op models.Operation, outcome ScriptedOutcome) string {
	parts := []string{fmt.Sprintf("%s failed", historyMessages[op])}
	if outcome.Output != "" {
		parts = append(parts, outcome.Output)
	}
	parts = append(parts, outcome.Errors...)
	return strings.Join(parts, ": ")
}

func newUpstream(name string) *models.Upstream {
	if name == "" {
		name = "sandbox-distributor"
	}
	return &models.Upstream{
		UUID:   uuid.NewString(),
		Name:   name,
		WebURL: sandboxWebURL,
		APIURL: sandboxAPIURL,
		IDCert: &models.IDCert{Cert: "-----BEGIN CERTIFICATE-----\nsandbox\n-----END CERTIFICATE-----"},
	}
}

// writeSubmission answers an upload, wrapped in HTML when configured.
func (s *Sandbox) writeSubmission(w http.ResponseWriter, status int, body any) {
	if !s.opts.WrapUploads {
		writeJSON(w, status, body)
		return
	}

	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<html><body><textarea>%s</textarea></body></html>", html.EscapeString(string(data)))
}

func writeOrganizationError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"displayMessage": msg,
		"error": map[string]any{
			"message":       msg,
			"full_messages": []string{msg},
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("failed to encode response", "error", err)
	}
}
