package gridctl

import "sync"

// ReleaseBus is an in-process ReleaseSource. A host UI binding calls Release
// from its global pointer-up listener.
type ReleaseBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

func NewReleaseBus() *ReleaseBus {
	return &ReleaseBus{subs: map[int]func(){}}
}

func (b *ReleaseBus) Subscribe(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Release notifies every subscriber.
func (b *ReleaseBus) Release() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Subscribers reports the number of live subscriptions.
func (b *ReleaseBus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
