// Package tasks coordinates manifest operations that run as server-side tasks.
//
// # Lifecycle
//
// [Coordinator.Submit] starts an operation through a [RequestFunc]:
//
//  1. The current task becomes a pending placeholder and the operation's status text is shown.
//  2. The request runs. A rejection is reported once through the [OutcomeNotifier] with the
//     operation's submit prefix, and the coordinator returns to idle.
//  3. The created task is tracked through the [PollingRegistry].
//  4. The first terminal snapshot releases the registration, is classified with [models.Classify],
//     and produces exactly one notification. Success refreshes the organization and history;
//     anything else refreshes only the history.
//
// Only one task may be pending at a time; Submit fails with [shared.ErrTaskInFlight] otherwise.
//
// # Polling
//
// [Poller] is the production registry. Registrations poll on their own goroutine and may share a rate limiter;
// fetchers that already throttle, like the API client, need none.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Updates use select with default
// to prevent blocking.
//
// # Dependent State
//
// [ManifestState] implements [Refresher] and derives [ManifestDetails] such as the upstream
// consumer link built by [BuildManifestLink]. [HistoryFeed] keeps the displayed subset of the history.
package tasks
