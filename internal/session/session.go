// Package session publishes authentication state to independent subscribers.
//
// A single [Publisher] is owned by the auth provider. Each view component subscribes
// on mount and calls the returned function on teardown.
package session

import (
	"slices"
	"sync"

	"github.com/desertthunder/cinematch/internal/models"
)

// Listener receives the current session. A nil session means signed out.
type Listener func(*models.Session)

// Publisher fans out session transitions to registered listeners.
type Publisher struct {
	mu      sync.Mutex
	current *models.Session
	nextID  int
	subs    map[int]Listener
}

func NewPublisher() *Publisher {
	return &Publisher{subs: make(map[int]Listener)}
}

// Subscribe registers fn and immediately delivers the current state to it.
//
// The returned function removes fn; calling it more than once is harmless.
func (p *Publisher) Subscribe(fn Listener) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	current := p.current
	p.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// Publish stores s as the current session and notifies every subscriber.
//
// Listeners run outside the lock in subscription order, so they may subscribe or unsubscribe.
func (p *Publisher) Publish(s *models.Session) {
	p.mu.Lock()
	p.current = s
	ids := make([]int, 0, len(p.subs))
	for id := range p.subs {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	slices.Sort(ids)
	for _, id := range ids {
		p.mu.Lock()
		fn, ok := p.subs[id]
		p.mu.Unlock()
		if ok {
			fn(s)
		}
	}
}

// Current returns the last published session.
func (p *Publisher) Current() *models.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Subscribers returns the number of active listeners.
func (p *Publisher) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}
