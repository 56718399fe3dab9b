// Package events fans rule events out to subscribers.
package events

import (
	"sync"

	"go.trai.ch/tend/internal/core/domain"
)

// Bus delivers every published event to every subscription in publish order.
// Publishing never blocks: each subscription buffers without bound, so a slow
// observer cannot stall the rule loop.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewBus creates a new Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscribe returns a subscription receiving the events published from now on.
// Subscribing to a closed bus returns an already closed subscription.
func (b *Bus) Subscribe() *Subscription {
	s := &Subscription{
		bus:  b,
		wake: make(chan struct{}, 1),
		out:  make(chan domain.Event),
		done: make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		s.ending = true
	} else {
		b.subs[s] = struct{}{}
	}
	b.mu.Unlock()

	go s.pump()
	return s
}

// Publish queues ev for every subscription.
func (b *Bus) Publish(ev domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for s := range b.subs {
		s.push(ev)
	}
}

// Close ends every subscription once its queued events were received.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		s.end()
	}
	clear(b.subs)
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, s)
}

// Subscription is one observer's ordered view of a bus.
type Subscription struct {
	bus *Bus

	mu     sync.Mutex
	queue  []domain.Event
	ending bool

	wake chan struct{}
	out  chan domain.Event
	done chan struct{}
	once sync.Once
}

// C returns the channel events are delivered on. It is closed after Close,
// or after the bus closed and the queue drained.
func (s *Subscription) C() <-chan domain.Event {
	return s.out
}

// Close stops delivery. Queued events are dropped.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.remove(s)
		close(s.done)
	})
}

func (s *Subscription) push(ev domain.Event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) end() {
	s.mu.Lock()
	s.ending = true
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			ending := s.ending
			s.mu.Unlock()
			if ending {
				return
			}
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		ev := s.queue[0]
		s.queue[0] = domain.Event{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- ev:
		case <-s.done:
			return
		}
	}
}
