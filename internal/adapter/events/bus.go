package events

import (
	"context"
	"log"
	"sync"

	"farmbot/internal/domain/world"
)

const (
	subscriberBufSize = 256
	tapBufSize        = 1024
)

// Bus fans farm events out to subscribers. Publishing never blocks: a full
// subscriber channel drops the event with a warning.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[world.EventType][]chan world.Event
	taps        []chan world.Event
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[world.EventType][]chan world.Event)}
}

func (b *Bus) Publish(e world.Event) {
	b.mu.RLock()
	subs := b.subscribers[e.Type]
	taps := b.taps
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			log.Printf("[BUS] WARNING: subscriber channel full for type=%s, event dropped", e.Type)
		}
	}
	for _, ch := range taps {
		select {
		case ch <- e:
		default:
			log.Printf("[BUS] WARNING: tap channel full, event dropped type=%s", e.Type)
		}
	}
}

// Subscribe returns a channel delivering events of type t.
func (b *Bus) Subscribe(t world.EventType) <-chan world.Event {
	ch := make(chan world.Event, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[t] = append(b.subscribers[t], ch)
	b.mu.Unlock()
	return ch
}

// Tap returns a new channel that receives every event.
func (b *Bus) Tap() <-chan world.Event {
	ch := make(chan world.Event, tapBufSize)
	b.mu.Lock()
	b.taps = append(b.taps, ch)
	b.mu.Unlock()
	return ch
}

// Forward feeds every event from ch to fn until ctx is done.
func Forward(ctx context.Context, ch <-chan world.Event, fn func(world.Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-ch:
			fn(e)
		}
	}
}
