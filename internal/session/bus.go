package session

import "sync"

// Bus fans authentication events out to per-user subscribers. The auth
// handlers publish sign-in/sign-out/refresh here; session watchers subscribe
// so a sign-out in one tab reaches every other tab of the same account.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan Event
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan Event)}
}

// Publish delivers e to every subscriber of userID, in order. Slow
// subscribers lose events instead of blocking the publisher.
func (b *Bus) Publish(userID string, e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[userID] {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers for events concerning userID. The returned cancel
// function must be called exactly once; it closes the channel.
func (b *Bus) Subscribe(userID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, 8)
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[int]chan Event)
	}
	b.subs[userID][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		userSubs, ok := b.subs[userID]
		if !ok {
			return
		}
		sub, ok := userSubs[id]
		if !ok {
			return
		}
		delete(userSubs, id)
		if len(userSubs) == 0 {
			delete(b.subs, userID)
		}
		close(sub)
	}
	return ch, cancel
}
