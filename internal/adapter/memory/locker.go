package memory

import (
	"context"
	"sync"

	portlocker "github.com/brightdoor/leadrouter/internal/port/locker"
)

var _ portlocker.AdvisoryLocker = (*Locker)(nil)

// Locker serialises critical sections with per-key mutexes. In-process
// only — multi-node deployments must use the Postgres advisory locker.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*sync.Mutex)}
}

func (l *Locker) WithLock(ctx context.Context, key int64, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}
