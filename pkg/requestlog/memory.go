package requestlog

import (
	"sync"
	"time"

	"github.com/peekd/peekd/internal/id"
)

// DefaultMaxRecords is the store capacity used when none is configured.
const DefaultMaxRecords = 100

// MemoryStore implements SubscribableStore with a fixed-capacity ring
// buffer. The backing array never grows past its capacity; an append at
// capacity overwrites the oldest slot. Writes are serialized by a mutex so
// all readers observe a single append order.
type MemoryStore struct {
	mu    sync.RWMutex
	ring  []*Record
	head  int // index of the oldest record
	count int

	seq       *id.Sequence
	broadcast *Broadcaster
}

// NewMemoryStore creates a MemoryStore holding at most maxRecords entries.
// Non-positive capacities fall back to DefaultMaxRecords.
func NewMemoryStore(maxRecords int) *MemoryStore {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &MemoryStore{
		ring:      make([]*Record, maxRecords),
		seq:       id.NewSequence(),
		broadcast: NewBroadcaster(),
	}
}

// Append stores rec, evicting the oldest record if the store is full, then
// publishes it to live subscribers. Eviction, insert, and publish happen
// under one lock acquisition, so capacity is never exceeded and subscribers
// see records in append order regardless of call rate. Publish never blocks
// on a slow subscriber, so holding the lock across it is safe.
func (s *MemoryStore) Append(rec *Record) {
	if rec == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = s.seq.Next()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	if s.count == len(s.ring) {
		// full: overwrite the oldest slot and advance the head
		s.ring[s.head] = rec
		s.head = (s.head + 1) % len(s.ring)
	} else {
		s.ring[(s.head+s.count)%len(s.ring)] = rec
		s.count++
	}

	s.broadcast.Publish(rec)
}

// Get returns the record with the given ID, or nil if it was never stored
// or has been evicted.
func (s *MemoryStore) Get(id string) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := 0; i < s.count; i++ {
		rec := s.ring[(s.head+i)%len(s.ring)]
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

// Snapshot returns a copy of the stored records, oldest to newest. The
// returned slice is independent of the store; records themselves are
// immutable and shared.
func (s *MemoryStore) Snapshot() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.ring[(s.head+i)%len(s.ring)]
	}
	return out
}

// Clear drops all records and returns how many were removed. Live
// subscribers are unaffected.
func (s *MemoryStore) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.count
	for i := range s.ring {
		s.ring[i] = nil
	}
	s.head = 0
	s.count = 0
	return n
}

// Count returns the number of stored records.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Cap returns the configured capacity.
func (s *MemoryStore) Cap() int {
	return len(s.ring)
}

// Subscribe registers a live subscriber with the store's broadcaster.
func (s *MemoryStore) Subscribe() *Subscription {
	return s.broadcast.Subscribe()
}

// Unsubscribe removes a subscriber. Idempotent.
func (s *MemoryStore) Unsubscribe(sub *Subscription) {
	s.broadcast.Unsubscribe(sub)
}

// Subscribers returns the number of active subscribers.
func (s *MemoryStore) Subscribers() int {
	return s.broadcast.Len()
}

// CloseSubscribers ends every live subscription. Called at shutdown.
func (s *MemoryStore) CloseSubscribers() {
	s.broadcast.Close()
}
