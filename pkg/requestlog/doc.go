// Package requestlog provides the in-memory request capture log and its
// real-time fan-out mechanism.
//
// This package serves peekd users who need to inspect incoming HTTP traffic.
// It is distinct from operational logging (which uses log/slog for platform
// debugging).
//
// # Core Types
//
// Record is the central type representing one captured HTTP request. Records
// are immutable once appended; the log only appends and evicts.
//
// MemoryStore is a fixed-capacity ring buffer of Records. When an append
// would exceed capacity the oldest record is evicted. All writes are
// serialized, so every reader observes a single global append order.
//
// Broadcaster fans new records out to live subscribers. Subscribers receive
// no history; their first record is the next one appended after they joined.
// Delivery is non-blocking: a slow subscriber drops records rather than
// stalling capture for everyone else.
//
// # Usage
//
//	store := requestlog.NewMemoryStore(100)
//	sub := store.Subscribe()
//	defer store.Unsubscribe(sub)
//
//	store.Append(&requestlog.Record{Method: "GET", Path: "/api/users"})
//	rec := <-sub.Records()
//
// # Package Design
//
// This is a leaf package with no dependencies on the HTTP layer, allowing
// the capture handler, API server, and tests to construct isolated
// instances.
package requestlog
