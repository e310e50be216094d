// Package pubsub delivers person-added events to in-process subscribers.
//
// Delivery is fire-and-forget with at-most-once semantics per subscriber:
// a publish never blocks, and an event is dropped for a subscriber whose
// buffer is full. There is no replay and no persistence of missed events.
package pubsub

import (
	"context"
	"sync"

	"github.com/mmynk/phonebook/internal/models"
	"github.com/mmynk/phonebook/internal/observability/metrics"
)

// subscriberBuffer is the per-subscriber event buffer size. A subscriber
// that falls further behind than this loses events.
const subscriberBuffer = 16

// PersonEvents fans out created persons to all current subscribers.
type PersonEvents struct {
	mu   sync.Mutex
	subs map[chan *models.Person]struct{}
}

// NewPersonEvents creates an event publisher with no subscribers.
func NewPersonEvents() *PersonEvents {
	return &PersonEvents{subs: make(map[chan *models.Person]struct{})}
}

// Subscribe registers a new subscriber. The returned channel receives
// every person published while the subscription is live and is closed
// when ctx is cancelled.
func (e *PersonEvents) Subscribe(ctx context.Context) <-chan *models.Person {
	ch := make(chan *models.Person, subscriberBuffer)

	e.mu.Lock()
	e.subs[ch] = struct{}{}
	e.mu.Unlock()
	metrics.SubscribersActive.Inc()

	go func() {
		<-ctx.Done()
		e.mu.Lock()
		delete(e.subs, ch)
		close(ch)
		e.mu.Unlock()
		metrics.SubscribersActive.Dec()
	}()

	return ch
}

// Publish sends the person to every current subscriber without blocking.
// Subscribers with a full buffer miss the event.
func (e *PersonEvents) Publish(person *models.Person) {
	e.mu.Lock()
	defer e.mu.Unlock()

	metrics.EventsPublishedTotal.Inc()
	for ch := range e.subs {
		select {
		case ch <- person:
		default:
			metrics.EventsDroppedTotal.Inc()
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (e *PersonEvents) SubscriberCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
