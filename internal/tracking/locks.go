package tracking

import (
	"sync"

	"github.com/google/uuid"
)

// busLocks hands out one mutex per bus so that read-decide-write for a bus is serialized
// while different buses proceed in parallel. Entries are dropped once nobody holds them.
type busLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*busLock
}

type busLock struct {
	sync.Mutex
	refs int
}

func newBusLocks() *busLocks {
	return &busLocks{locks: make(map[uuid.UUID]*busLock)}
}

// lock blocks until the bus is free and returns the matching unlock.
func (l *busLocks) lock(busID uuid.UUID) func() {
	l.mu.Lock()
	bl, ok := l.locks[busID]
	if !ok {
		bl = &busLock{}
		l.locks[busID] = bl
	}
	bl.refs++
	l.mu.Unlock()

	bl.Lock()
	return func() {
		bl.Unlock()
		l.mu.Lock()
		bl.refs--
		if bl.refs == 0 {
			delete(l.locks, busID)
		}
		l.mu.Unlock()
	}
}
