package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/mmynk/phonebook/internal/models"
)

func TestPersonEvents(t *testing.T) {
	t.Run("publish with no subscribers does not block", func(t *testing.T) {
		e := NewPersonEvents()

		done := make(chan struct{})
		go func() {
			e.Publish(&models.Person{Name: "Arto"})
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Publish blocked with no subscribers")
		}
	})

	t.Run("every subscriber receives the event", func(t *testing.T) {
		e := NewPersonEvents()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		first := e.Subscribe(ctx)
		second := e.Subscribe(ctx)
		if e.SubscriberCount() != 2 {
			t.Fatalf("Expected 2 subscribers, got %d", e.SubscriberCount())
		}

		person := &models.Person{ID: "p1", Name: "Arto"}
		e.Publish(person)

		for i, ch := range []<-chan *models.Person{first, second} {
			select {
			case got := <-ch:
				if got.ID != person.ID {
					t.Errorf("Subscriber %d got %s, want %s", i, got.ID, person.ID)
				}
			case <-time.After(time.Second):
				t.Fatalf("Subscriber %d did not receive the event", i)
			}
		}
	})

	t.Run("slow subscriber drops events instead of blocking", func(t *testing.T) {
		e := NewPersonEvents()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		e.Subscribe(ctx) // never drained

		done := make(chan struct{})
		go func() {
			for i := 0; i < subscriberBuffer*2; i++ {
				e.Publish(&models.Person{Name: "Arto"})
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Publish blocked on a full subscriber buffer")
		}
	})

	t.Run("cancelling the context closes the channel", func(t *testing.T) {
		e := NewPersonEvents()
		ctx, cancel := context.WithCancel(context.Background())

		ch := e.Subscribe(ctx)
		cancel()

		select {
		case _, open := <-ch:
			if open {
				t.Error("Expected closed channel after cancel")
			}
		case <-time.After(time.Second):
			t.Fatal("Channel not closed after cancel")
		}

		// Unsubscribed; publishing is safe.
		e.Publish(&models.Person{Name: "Arto"})
		if e.SubscriberCount() != 0 {
			t.Errorf("Expected 0 subscribers, got %d", e.SubscriberCount())
		}
	})
}
