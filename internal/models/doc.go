// Package models defines the domain entities of the manifest task coordinator.
//
// The package contains three categories of types:
//
// 1. Wire entities decoded from the Katello/Foreman API:
//   - [Task] : task handle with its mutable status snapshot
//   - [Organization] : organization aggregate with its [Upstream] consumer
//   - [HistoryEntry] : one row of the manifest import/refresh/delete history
//
// 2. Domain values decoded once at the transport boundary:
//   - [Outcome] : tagged classification of a task snapshot (pending, success, error, warning)
//   - [Operation] : the manifest operation a task belongs to and its user-facing texts
//   - [SubmissionFailure] : a rejected submission with field-level errors
//
// 3. Persistent entities:
//   - [TaskRecord] : terminal task outcome stored locally
//
// Persistent entities implement the [Model] interface and are stored through a [Repository].
package models
