package eventbus

import "sync"

// RoomOpened is published whenever the room registry resolves an open-room
// request, whether a new room was created or an active one was reused.
type RoomOpened struct {
	RoomID     string
	ChatType   string
	CustomerID string
	SellerID   string
	Reused     bool
}

// Bus is an in-process event bus with an explicit subscribe/unsubscribe
// lifecycle. The component that creates the bus owns it; there is no
// package-level instance.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan RoomOpened
}

func New() *Bus {
	return &Bus{
		subs: make(map[int]chan RoomOpened),
	}
}

// Subscribe registers a listener and returns its channel together with a
// cancel function. Cancelling removes the subscription and closes the
// channel; cancelling twice is safe.
func (b *Bus) Subscribe(buffer int) (<-chan RoomOpened, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan RoomOpened, buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Publish delivers the event to every live subscriber. Delivery is
// non-blocking: a subscriber with a full buffer misses the event.
func (b *Bus) Publish(event RoomOpened) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
