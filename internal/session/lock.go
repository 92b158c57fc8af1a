package session

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// maxReaders bounds concurrent shared holders; an exclusive holder takes all of them.
const maxReaders = 1 << 20

// rwLock is a reader/writer lock whose acquisitions honor a context. Waiters
// are served in FIFO order, so a queued writer is not starved by later readers.
type rwLock struct {
	sem *semaphore.Weighted
}

func newRWLock() *rwLock {
	return &rwLock{sem: semaphore.NewWeighted(maxReaders)}
}

func (l *rwLock) RLock(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *rwLock) RUnlock() {
	l.sem.Release(1)
}

func (l *rwLock) Lock(ctx context.Context) error {
	return l.sem.Acquire(ctx, maxReaders)
}

func (l *rwLock) Unlock() {
	l.sem.Release(maxReaders)
}
