// Package repositories implements SQLite persistence for manifest task outcomes.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [TaskRecordRepository] : terminal task outcomes, filterable by operation, result and task id
//   - [TaskRecorder] : adapts the repository to the coordinator's recorder interface
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
