package event

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Subscription represents an active registration on the bus.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// Topic returns the subscribed topic.
	Topic() Topic

	// IsActive returns true if the subscription can receive events.
	IsActive() bool

	// Cancel permanently cancels the subscription. Cancel is
	// idempotent and safe to call from a handler.
	Cancel()
}

// Bus delivers published events to subscribers synchronously.
// All methods are safe for concurrent use. Handlers are invoked
// outside the bus lock, so a handler may subscribe or cancel.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic]map[string]*subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic]map[string]*subscription)}
}

// Subscribe registers a handler for a topic and returns its
// subscription handle.
func (b *Bus) Subscribe(t Topic, h Handler) Subscription {
	s := &subscription{
		id:      uuid.NewString(),
		topic:   t,
		handler: h,
		bus:     b,
	}

	b.mu.Lock()
	if b.subs[t] == nil {
		b.subs[t] = make(map[string]*subscription)
	}
	b.subs[t][s.id] = s
	b.mu.Unlock()

	return s
}

// Publish delivers payload to every active subscriber of t on the
// calling goroutine.
func (b *Bus) Publish(t Topic, payload any) {
	b.mu.RLock()
	targets := make([]*subscription, 0, len(b.subs[t]))
	for _, s := range b.subs[t] {
		targets = append(targets, s)
	}
	b.mu.RUnlock()

	for _, s := range targets {
		if s.IsActive() {
			s.handler(payload)
		}
	}
}

// SubscriberCount returns the number of active subscriptions for t.
func (b *Bus) SubscriberCount(t Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[t])
}

// remove detaches a cancelled subscription from the registry.
func (b *Bus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m := b.subs[s.topic]; m != nil {
		delete(m, s.id)
		if len(m) == 0 {
			delete(b.subs, s.topic)
		}
	}
}

// subscription is the internal Subscription implementation.
type subscription struct {
	id        string
	topic     Topic
	handler   Handler
	bus       *Bus
	cancelled atomic.Bool
}

// ID returns the subscription ID.
func (s *subscription) ID() string { return s.id }

// Topic returns the subscribed topic.
func (s *subscription) Topic() Topic { return s.topic }

// IsActive returns true until Cancel is called.
func (s *subscription) IsActive() bool { return !s.cancelled.Load() }

// Cancel permanently cancels the subscription.
func (s *subscription) Cancel() {
	if s.cancelled.Swap(true) {
		return
	}
	s.bus.remove(s)
}

// Group owns a set of subscriptions and releases them together.
// The zero value is ready to use.
type Group struct {
	mu     sync.Mutex
	subs   []Subscription
	closed bool
}

// Add places a subscription under the group's ownership. If the group
// is already closed the subscription is cancelled immediately.
func (g *Group) Add(s Subscription) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		s.Cancel()
		return
	}
	g.subs = append(g.subs, s)
	g.mu.Unlock()
}

// Close cancels every owned subscription. Close is idempotent.
func (g *Group) Close() {
	g.mu.Lock()
	subs := g.subs
	g.subs = nil
	g.closed = true
	g.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
}

// Len returns the number of owned subscriptions.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.subs)
}
