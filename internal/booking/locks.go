package booking

import (
	"context"
	"sync"
)

// roomLocks hands out one mutual-exclusion slot per room id. Entries are
// reference counted and dropped once nobody holds or waits for them, so the
// table only grows with the number of rooms being booked concurrently.
type roomLocks struct {
	mu    sync.Mutex
	rooms map[int64]*roomLock
}

type roomLock struct {
	sem  chan struct{}
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{rooms: make(map[int64]*roomLock)}
}

// acquire blocks until the room's slot is free or ctx is done. The returned
// func releases the slot and must be called exactly once.
func (l *roomLocks) acquire(ctx context.Context, roomID int64) (func(), error) {
	l.mu.Lock()
	rl, ok := l.rooms[roomID]
	if !ok {
		rl = &roomLock{sem: make(chan struct{}, 1)}
		l.rooms[roomID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	select {
	case rl.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(roomID, rl)
		return nil, ctx.Err()
	}

	return func() {
		<-rl.sem
		l.unref(roomID, rl)
	}, nil
}

func (l *roomLocks) unref(roomID int64, rl *roomLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl.refs--
	if rl.refs == 0 {
		delete(l.rooms, roomID)
	}
}

// size returns the number of live entries.
func (l *roomLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}
