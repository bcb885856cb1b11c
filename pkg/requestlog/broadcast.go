package requestlog

import (
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer is the per-subscriber delivery queue depth. A subscriber
// that falls this far behind starts dropping records rather than stalling
// the publisher.
const subscriberBuffer = 64

// Subscription is the handle held by one live viewer connection.
// Its lifecycle is ACTIVE from Subscribe until Unsubscribe (or broadcaster
// Close), after which the delivery channel is closed. Terminal.
type Subscription struct {
	id    string
	ch    chan *Record
	close sync.Once
}

// Records returns the delivery channel. It is closed when the subscription
// ends; receivers should treat a closed channel as end-of-stream.
func (s *Subscription) Records() <-chan *Record {
	return s.ch
}

func (s *Subscription) shutdown() {
	s.close.Do(func() { close(s.ch) })
}

// Broadcaster fans records out to a dynamic set of subscribers.
// The zero value is not usable; call NewBroadcaster.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]*Subscription)}
}

// Subscribe registers a new subscriber and returns its handle.
// No history is replayed: the first record delivered is the next one
// published after registration.
func (b *Broadcaster) Subscribe() *Subscription {
	sub := &Subscription{
		id: uuid.NewString(),
		ch: make(chan *Record, subscriberBuffer),
	}

	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()

	return sub
}

// Unsubscribe removes a subscriber and closes its delivery channel.
// Unsubscribing twice, or unsubscribing a handle the broadcaster does not
// know, is a no-op.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	delete(b.subs, sub.id)
	b.mu.Unlock()

	sub.shutdown()
}

// Publish delivers rec to every current subscriber. Delivery is
// non-blocking: a subscriber whose queue is full misses this record, but
// records it does receive arrive in publish order. Publish never fails and
// never blocks on a stalled subscriber.
func (b *Broadcaster) Publish(rec *Record) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub.ch <- rec:
		default:
			// subscriber is slow, drop the record for it
		}
	}
}

// Len returns the number of active subscribers.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close unsubscribes every subscriber. Used at process shutdown so stream
// handlers observe end-of-stream promptly.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[string]*Subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
}
