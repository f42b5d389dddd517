package core

import (
	"sync"
)

// DefaultSubscriberBuffer is the channel buffer size for new subscriptions.
// A full buffer causes events to be dropped for that subscriber only; the
// subscriber can recover missed events via EventsFrom or SubscribeWithReplay.
const DefaultSubscriberBuffer = 1000

// Subscription is a live feed of events from a Bus. Cancel releases the
// subscription and closes the channel returned by Events.
type Subscription struct {
	ch     chan Event
	cancel func()
	once   sync.Once
}

// Events returns the subscription's event channel. The channel is closed
// after Cancel.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Cancel detaches the subscription from the bus. Safe to call multiple times.
func (s *Subscription) Cancel() { s.once.Do(s.cancel) }

// Bus is an append-only event log with broadcast fan-out. Appends assign
// strictly monotonic, gap-free offsets. Broadcasting uses non-blocking sends
// so a slow subscriber can never stall the producer.
type Bus struct {
	mu         sync.RWMutex
	log        []Event
	nextOffset uint64
	subs       map[int]chan Event
	nextSubID  int
	bufSize    int
}

// BusOptions configure a Bus.
type BusOptions struct {
	// SubscriberBuffer is the per-subscription channel capacity.
	SubscriberBuffer int
}

// NewBus creates an empty event bus.
func NewBus(optFns ...func(o *BusOptions)) *Bus {
	opts := BusOptions{SubscriberBuffer: DefaultSubscriberBuffer}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Bus{
		subs:    make(map[int]chan Event),
		bufSize: opts.SubscriberBuffer,
	}
}

// Append assigns the next offset to the event, stores it in the log and
// broadcasts it to all live subscribers. The send is non-blocking: if a
// subscriber's buffer is full the event is dropped for that subscriber.
// Returns the stored event including its assigned offset.
func (b *Bus) Append(ev Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ev.Offset = b.nextOffset
	b.nextOffset++
	b.log = append(b.log, ev)

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is not keeping up; it recovers via replay.
		}
	}

	return ev
}

// Subscribe registers a new live subscription starting at the current tail.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.subscribeLocked()
}

// SubscribeWithReplay returns all events at or after offset plus a live
// subscription. The snapshot and subscription are taken under one lock, so a
// concurrent Append lands either in the snapshot or on the channel, never in
// both and never in neither.
func (b *Bus) SubscribeWithReplay(offset uint64) ([]Event, *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.eventsFromLocked(offset), b.subscribeLocked()
}

// EventsFrom returns a copy of all events with Offset >= offset.
func (b *Bus) EventsFrom(offset uint64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.eventsFromLocked(offset)
}

// Events returns a copy of the full log.
func (b *Bus) Events() []Event { return b.EventsFrom(0) }

// Len returns the number of events in the log.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.log)
}

// NextOffset returns the offset the next appended event will receive.
func (b *Bus) NextOffset() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.nextOffset
}

func (b *Bus) subscribeLocked() *Subscription {
	id := b.nextSubID
	b.nextSubID++

	ch := make(chan Event, b.bufSize)
	b.subs[id] = ch

	return &Subscription{
		ch: ch,
		cancel: func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		},
	}
}

// eventsFromLocked copies the log suffix; offsets are gap-free so the slice
// index doubles as the offset.
func (b *Bus) eventsFromLocked(offset uint64) []Event {
	if offset >= uint64(len(b.log)) {
		return []Event{}
	}
	out := make([]Event, len(b.log[offset:]))
	copy(out, b.log[offset:])
	return out
}
