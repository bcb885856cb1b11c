package requestlog

import "time"

// Record captures the metadata of one inbound HTTP request.
// A Record is immutable once appended to a store.
type Record struct {
	// ID is a monotonically increasing identifier of the form
	// "req-<base36>", unique within the process lifetime. Clients use it
	// for deduplication and ordering.
	ID string `json:"id"`

	// Timestamp is when the request was received, in UTC.
	Timestamp time.Time `json:"timestamp"`

	// Method is the HTTP verb, uppercase.
	Method string `json:"method"`

	// Path is the request path including the leading slash, without the
	// query string.
	Path string `json:"path"`

	// Query holds the query parameters. Multi-valued keys collapse to the
	// last value seen, matching how most frameworks expose them.
	Query map[string]string `json:"queryParams,omitempty"`

	// Headers holds the request headers keyed by canonical MIME name.
	// Multi-valued headers are joined with ", ".
	Headers map[string]string `json:"headers,omitempty"`

	// Body is the request body as text. Invalid UTF-8 sequences are
	// replaced with U+FFFD at capture time; the body may be truncated,
	// in which case BodySize still reports the original length.
	Body string `json:"body,omitempty"`

	// BodySize is the original body size in bytes.
	BodySize int `json:"bodySize"`

	// ClientIP is the best-effort originating address. It may reflect a
	// proxy when forwarding headers are absent.
	ClientIP string `json:"clientIP"`
}

// Store is the read/write contract for request history.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append inserts a record at the tail, evicting the oldest record
	// first when the store is at capacity. Missing ID and Timestamp
	// fields are assigned.
	Append(rec *Record)

	// Get returns the record with the given ID, or nil.
	Get(id string) *Record

	// Snapshot returns a point-in-time copy of the log, oldest to newest.
	Snapshot() []*Record

	// Clear removes all records and returns how many were dropped.
	Clear() int

	// Count returns the number of stored records.
	Count() int
}

// SubscribableStore is a Store whose appends can be observed in real time.
type SubscribableStore interface {
	Store

	// Subscribe registers a live subscriber. The subscriber sees only
	// records appended after registration.
	Subscribe() *Subscription

	// Unsubscribe removes a subscriber. Idempotent.
	Unsubscribe(sub *Subscription)
}
