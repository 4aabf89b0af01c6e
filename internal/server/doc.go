// Package server provides HTTP routing, middleware, and a local simulation of the subscription and task API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers "METHOD path" patterns on an [http.ServeMux],
// so handlers can read wildcards with [http.Request.PathValue].
//
// # Sandbox
//
// [Sandbox] serves the organization, subscription and task endpoints from memory. Manifest operations
// create tasks that finish after a configurable number of status requests, append a history entry, and
// mutate the organization's upstream consumer on success. Tests use [Sandbox.Script] to force error,
// warning, or unknown results, and [Sandbox.RejectNext] to reject the next submission.
//
// The sandbox backs the `mfx sandbox` command and the end-to-end tests of the CLI.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
