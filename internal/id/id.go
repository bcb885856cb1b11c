// Package id provides identifier generation for captured request records.
package id

import (
	"strconv"
	"sync/atomic"
)

// Sequence hands out monotonically increasing record IDs of the form
// "req-<base36>". IDs are unique within the process lifetime and preserve
// append order when compared as issued, which lets stream consumers
// deduplicate against snapshot backfill.
type Sequence struct {
	n atomic.Int64
}

// NewSequence returns a Sequence starting at 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next ID in the sequence.
func (s *Sequence) Next() string {
	return Format(s.n.Add(1))
}

// Format renders a sequence number as a record ID.
func Format(n int64) string {
	return "req-" + strconv.FormatInt(n, 36)
}
