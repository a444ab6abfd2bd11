package event

import (
	"sync"
	"sync/atomic"
	"time"
)

// Kind names an event stream.
type Kind string

const (
	TrackAdded    Kind = "track_added"
	TrackRemoved  Kind = "track_removed"
	TrackChanged  Kind = "track_changed"
	MixerCleared  Kind = "mixer_cleared"
	SessionSaved  Kind = "session_saved"
	SessionLoaded Kind = "session_loaded"
	SoundsUpdated Kind = "sounds_updated"
)

// Event is what subscribers receive. Data is owned by the receiver and must
// not be shared mutable state.
type Event struct {
	Kind      Kind   `json:"type"`
	Ref       string `json:"ref,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event and its Dropped counter grows.
type Bus struct {
	mu   sync.RWMutex
	subs map[uint64]*Subscription
	next uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]*Subscription)}
}

// Subscription is one receiver. Read events from C until it is closed.
type Subscription struct {
	C <-chan Event

	ch      chan Event
	kinds   map[Kind]bool
	bus     *Bus
	id      uint64
	dropped atomic.Uint64
}

// Subscribe registers a receiver for the given kinds, or for every kind when
// none are given.
func (b *Bus) Subscribe(buffer int, kinds ...Kind) *Subscription {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)
	sub := &Subscription{C: ch, ch: ch, bus: b}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}

	b.mu.Lock()
	b.next++
	sub.id = b.next
	b.subs[sub.id] = sub
	b.mu.Unlock()
	return sub
}

// Publish delivers e to every interested subscriber and returns how many
// received it. A nil bus accepts and drops everything.
func (b *Bus) Publish(e Event) int {
	if b == nil {
		return 0
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	delivered := 0
	for _, sub := range b.subs {
		if sub.kinds != nil && !sub.kinds[e.Kind] {
			continue
		}
		select {
		case sub.ch <- e:
			delivered++
		default:
			sub.dropped.Add(1)
		}
	}
	return delivered
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close unregisters the subscription and closes C. Safe to call twice.
func (s *Subscription) Close() {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s.id]; !ok {
		return
	}
	delete(b.subs, s.id)
	close(s.ch)
}

// Dropped reports how many events were lost to a full buffer.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}
