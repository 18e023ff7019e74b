package web

import (
	"sync"

	"gpsreader/internal/gps"
)

// Event is one item pushed to /api/stream clients.
type Event struct {
	Type     string       `json:"type"`
	Line     string       `json:"line"`
	Snapshot gps.Snapshot `json:"snapshot"`
}

// Broadcaster fans out reader events to any listeners. It keeps the most
// recent value so new subscribers get an immediate sample. Slow subscribers
// miss events instead of blocking the reader.
type Broadcaster struct {
	mu       sync.RWMutex
	subs     map[int]chan Event
	nextID   int
	last     Event
	haveLast bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

func (b *Broadcaster) Subscribe(buffer int) (int, <-chan Event) {
	if b == nil {
		return 0, nil
	}
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	last, have := b.last, b.haveLast
	b.mu.Unlock()
	if have {
		ch <- last
	}
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id int) {
	if b == nil {
		return
	}
	b.mu.Lock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish adapts a reader update; it matches the gps.Service handler type.
func (b *Broadcaster) Publish(u gps.Update) {
	if b == nil {
		return
	}
	ev := Event{Type: u.Type.String(), Line: u.Line, Snapshot: u.Snapshot}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.last, b.haveLast = ev, true
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *Broadcaster) Subscribers() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
