package event

import (
	"sync/atomic"
	"testing"
)

func TestBus_PublishDeliversToSubscribers(t *testing.T) {
	b := NewBus()

	var got atomic.Int32
	b.Subscribe(TopicDocumentChanged, func(payload any) {
		ev, ok := payload.(DocumentEvent)
		if !ok {
			t.Errorf("payload = %T, want DocumentEvent", payload)
			return
		}
		if ev.Path != "main.go" {
			t.Errorf("Path = %q, want main.go", ev.Path)
		}
		got.Add(1)
	})

	b.Publish(TopicDocumentChanged, DocumentEvent{Path: "main.go"})
	b.Publish(TopicDocumentChanged, DocumentEvent{Path: "main.go"})

	if got.Load() != 2 {
		t.Errorf("deliveries = %d, want 2", got.Load())
	}
}

func TestBus_TopicIsolation(t *testing.T) {
	b := NewBus()

	var got atomic.Int32
	b.Subscribe(TopicConfigChanged, func(any) { got.Add(1) })

	b.Publish(TopicDocumentChanged, DocumentEvent{})

	if got.Load() != 0 {
		t.Errorf("deliveries = %d, want 0", got.Load())
	}
}

func TestBus_CancelStopsDelivery(t *testing.T) {
	b := NewBus()

	var got atomic.Int32
	sub := b.Subscribe(TopicDocumentChanged, func(any) { got.Add(1) })

	b.Publish(TopicDocumentChanged, DocumentEvent{})
	sub.Cancel()
	b.Publish(TopicDocumentChanged, DocumentEvent{})

	if got.Load() != 1 {
		t.Errorf("deliveries = %d, want 1", got.Load())
	}
	if sub.IsActive() {
		t.Error("subscription still active after Cancel")
	}
	if n := b.SubscriberCount(TopicDocumentChanged); n != 0 {
		t.Errorf("SubscriberCount = %d, want 0", n)
	}
}

func TestBus_CancelIdempotent(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe(TopicDocumentChanged, func(any) {})

	sub.Cancel()
	sub.Cancel() // must not panic or corrupt the registry
}

func TestBus_CancelFromHandler(t *testing.T) {
	b := NewBus()

	var got atomic.Int32
	var sub Subscription
	sub = b.Subscribe(TopicDocumentChanged, func(any) {
		got.Add(1)
		sub.Cancel()
	})

	b.Publish(TopicDocumentChanged, DocumentEvent{})
	b.Publish(TopicDocumentChanged, DocumentEvent{})

	if got.Load() != 1 {
		t.Errorf("deliveries = %d, want 1", got.Load())
	}
}

func TestGroup_CloseCancelsAll(t *testing.T) {
	b := NewBus()

	var got atomic.Int32
	var g Group
	g.Add(b.Subscribe(TopicDocumentChanged, func(any) { got.Add(1) }))
	g.Add(b.Subscribe(TopicDocumentOpened, func(any) { got.Add(1) }))

	if g.Len() != 2 {
		t.Fatalf("Len = %d, want 2", g.Len())
	}

	g.Close()
	b.Publish(TopicDocumentChanged, DocumentEvent{})
	b.Publish(TopicDocumentOpened, DocumentEvent{})

	if got.Load() != 0 {
		t.Errorf("deliveries after Close = %d, want 0", got.Load())
	}
}

func TestGroup_AddAfterCloseCancelsImmediately(t *testing.T) {
	b := NewBus()

	var g Group
	g.Close()

	sub := b.Subscribe(TopicDocumentChanged, func(any) {})
	g.Add(sub)

	if sub.IsActive() {
		t.Error("subscription added after Close should be cancelled")
	}
}

func TestGroup_CloseIdempotent(t *testing.T) {
	var g Group
	g.Close()
	g.Close()
}
