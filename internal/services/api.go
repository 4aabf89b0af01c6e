// API service for making raw HTTP requests to the subscription management server
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://localhost:3000"

// APIOpts configures an [APIService].
type APIOpts struct {
	BaseURL   string       // Server root, without a trailing slash
	Username  string       // Basic auth user, ignored when Token is set
	Password  string       // Basic auth password
	Token     string       // Bearer token
	RateLimit float64      // Requests per second, zero disables limiting
	Client    *http.Client // Base client (default: http.DefaultClient)
	Logger    *log.Logger
}

// APIService provides methods for making raw HTTP requests to the server.
//
// Every request waits on a shared rate limiter, so the poller and interactive calls are throttled together.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	username   string
	password   string
	logger     *log.Logger
}

// NewAPIService creates a new API service instance.
func NewAPIService(opts APIOpts) *APIService {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	if opts.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		client = &http.Client{
			Transport: &oauth2.Transport{Source: src, Base: client.Transport},
			Timeout:   client.Timeout,
		}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	svc := &APIService{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    limiter,
		logger:     logger,
	}
	if opts.Token == "" {
		svc.username = opts.Username
		svc.password = opts.Password
	}
	return svc
}

// BaseURL returns the server root requests are sent to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the response carries a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the response body into v.
func (r *APIResponse) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Do sends a request to path and returns the raw response. A non-2xx status is not an error.
func (a *APIService) Do(ctx context.Context, method, path, contentType string, body io.Reader) (*APIResponse, error) {
	fullURL := a.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if a.username != "" {
		req.SetBasicAuth(a.username, a.password)
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	a.logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode)

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, "", nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(data))
}

// Put performs a PUT request with the given JSON data and returns the raw response.
func (a *APIService) Put(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPut, path, "application/json", bytes.NewReader(data))
}

// PostMultipart uploads the contents of r as the file part named field.
func (a *APIService) PostMultipart(ctx context.Context, path, field, filename string, r io.Reader) (*APIResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to copy %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return a.Do(ctx, http.MethodPost, path, mw.FormDataContentType(), &buf)
}
