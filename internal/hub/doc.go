// Package hub fans change events out to live subscribers.
//
// A Hub owns the subscriber set behind a mutex that is only ever held for
// pointer operations: Broadcast snapshots the set, releases the lock, and
// then offers the serialized payload to each bounded inbox without blocking.
// A saturated inbox loses its oldest pending event so a stalled consumer
// keeps the most recent state and bounded memory.
package hub
