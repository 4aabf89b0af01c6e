// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI shows a single details view of the organization's subscription manifest: the manifest name and
// link, a spinner with the status text while a task is pending, the last notification, and the newest
// history entries with a hint when more exist.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Operations run through a [tasks.Coordinator]; its progress updates and notifications flow through channels
// that the model drains one message at a time.
//
// Keys: u imports the manifest file given on the command line, r refreshes, d deletes after a y/n confirmation,
// and q quits. [Model.Close] tears the coordinator down.
package ui
