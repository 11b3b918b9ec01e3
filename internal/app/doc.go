// Package app provides the application service layer.
//
// Orchestrates use cases: project CRUD with optimistic concurrency, bulk
// mutations, team/milestone/audit subresources, and portfolio stats. Sits
// between HTTP handlers and domain stores. Depends on domain interfaces, not
// concrete implementations. Change events are handed to publishers only after
// the owning transaction has committed.
package app
