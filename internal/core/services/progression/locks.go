package progression

import (
	"sync"

	"github.com/google/uuid"
)

// playerLocks serialises read-modify-write cycles per player. Entries are
// reference counted and dropped once nobody holds or waits on them.
type playerLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*playerLock
}

type playerLock struct {
	sync.Mutex
	refs int
}

func newPlayerLocks() *playerLocks {
	return &playerLocks{locks: make(map[uuid.UUID]*playerLock)}
}

// Lock blocks until the player's lock is held and returns its release func.
func (p *playerLocks) Lock(id uuid.UUID) func() {
	p.mu.Lock()
	l, ok := p.locks[id]
	if !ok {
		l = &playerLock{}
		p.locks[id] = l
	}
	l.refs++
	p.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, id)
		}
		p.mu.Unlock()
	}
}

func (p *playerLocks) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
