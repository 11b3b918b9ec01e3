// Package domain holds the core types and interfaces of the dashboard:
// projects and their child rows, the bulk-mutation protocol, change events,
// and the ports implemented by the storage and transport adapters.
package domain
