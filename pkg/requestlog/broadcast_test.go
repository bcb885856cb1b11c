package requestlog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_PublishToAll(t *testing.T) {
	b := NewBroadcaster()

	const m = 5
	subs := make([]*Subscription, m)
	for i := range subs {
		subs[i] = b.Subscribe()
	}

	rec := &Record{ID: "req-1", Method: "GET", Path: "/test"}
	b.Publish(rec)

	for i, sub := range subs {
		select {
		case got := <-sub.Records():
			assert.Equal(t, "req-1", got.ID, "subscriber %d", i)
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestBroadcaster_OrderWithinSubscriber(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe()

	for i := 0; i < 10; i++ {
		b.Publish(&Record{ID: fmt.Sprintf("req-%d", i)})
	}

	for i := 0; i < 10; i++ {
		got := <-sub.Records()
		assert.Equal(t, fmt.Sprintf("req-%d", i), got.ID)
	}
}

func TestBroadcaster_NoBacklog(t *testing.T) {
	b := NewBroadcaster()

	b.Publish(&Record{ID: "req-old"})

	sub := b.Subscribe()
	b.Publish(&Record{ID: "req-new"})

	got := <-sub.Records()
	assert.Equal(t, "req-new", got.ID, "first delivery must be the first record published after joining")
}

func TestBroadcaster_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe()

	b.Unsubscribe(sub)
	b.Publish(&Record{ID: "req-1"})

	_, ok := <-sub.Records()
	assert.False(t, ok, "channel must be closed with nothing delivered")
}

func TestBroadcaster_UnsubscribeIdempotent(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe()

	b.Unsubscribe(sub)
	assert.NotPanics(t, func() { b.Unsubscribe(sub) })
	assert.NotPanics(t, func() { b.Unsubscribe(nil) })
	assert.Equal(t, 0, b.Len())
}

func TestBroadcaster_UnsubscribeUnknownHandle(t *testing.T) {
	b := NewBroadcaster()
	other := NewBroadcaster().Subscribe()

	assert.NotPanics(t, func() { b.Unsubscribe(other) })
}

func TestBroadcaster_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBroadcaster()

	// never read from this one
	slow := b.Subscribe()
	defer b.Unsubscribe(slow)

	fast := b.Subscribe()
	defer b.Unsubscribe(fast)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// well past the slow subscriber's buffer
		for i := 0; i < subscriberBuffer*3; i++ {
			b.Publish(&Record{ID: fmt.Sprintf("req-%d", i)})
			// drain fast so its buffer never fills
			<-fast.Records()
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBroadcaster_SlowSubscriberDropsInOrder(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish(&Record{ID: fmt.Sprintf("req-%d", i)})
	}
	b.Unsubscribe(sub)

	// the buffered prefix survives, in publish order
	i := 0
	for got := range sub.Records() {
		require.Equal(t, fmt.Sprintf("req-%d", i), got.ID)
		i++
	}
	assert.Equal(t, subscriberBuffer, i)
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster()
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()

	b.Close()

	_, ok := <-sub1.Records()
	assert.False(t, ok)
	_, ok = <-sub2.Records()
	assert.False(t, ok)
	assert.Equal(t, 0, b.Len())

	// unsubscribing after close is still safe
	assert.NotPanics(t, func() { b.Unsubscribe(sub1) })
}

func TestBroadcaster_Len(t *testing.T) {
	b := NewBroadcaster()
	assert.Equal(t, 0, b.Len())

	sub := b.Subscribe()
	assert.Equal(t, 1, b.Len())

	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.Len())
}
