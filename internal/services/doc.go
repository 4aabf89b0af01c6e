// Package services implements the HTTP clients for the subscription management server.
//
// # Raw API
//
// [APIService] sends requests to the server root with basic or bearer authentication.
// Bearer tokens use an [oauth2.StaticTokenSource] so the header is attached by the transport.
// All requests share one rate limiter.
//
// # Manifest Endpoints
//
// [KatelloService] implements [ManifestService]:
//   - upload: POST /katello/api/v2/organizations/{org}/subscriptions/upload (multipart field "content")
//   - refresh: PUT /katello/api/v2/organizations/{org}/subscriptions/refresh_manifest
//   - delete: POST /katello/api/v2/organizations/{org}/subscriptions/delete_manifest
//   - history: GET /katello/api/v2/organizations/{org}/subscriptions/manifest_history
//   - tasks: GET /foreman_tasks/api/tasks/{id}
//
// # Submission Responses
//
// Task creating requests are decoded by [DecodeSubmission].
// Upload responses may arrive wrapped in an HTML document; the JSON is pulled out of the first
// pre, textarea or body element with goquery.
// Rejections are returned as [*models.SubmissionFailure].
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : unexpected HTTP status
//   - [shared.ErrTaskNotFound] : task id unknown to the server
//   - [shared.ErrDecodeResponse] : response body could not be decoded
package services
