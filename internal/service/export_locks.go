package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// exportLocks — one export per store at a time
// ─────────────────────────────────────────────────────────────

// exportLocks tracks the stores with an export in flight. A scheduled
// export that fires while a manual one is still writing the same store
// directory is refused instead of racing on the files.
type exportLocks struct {
	mu     sync.Mutex
	stores map[string]struct{}
	wg     sync.WaitGroup
}

// acquire claims storeID. The returned release must be called once; ok is
// false when the store is already being exported.
func (l *exportLocks) acquire(storeID string) (release func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stores == nil {
		l.stores = make(map[string]struct{})
	}
	if _, busy := l.stores[storeID]; busy {
		return nil, false
	}
	l.stores[storeID] = struct{}{}
	l.wg.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.stores, storeID)
			l.mu.Unlock()
			l.wg.Done()
		})
	}, true
}

// wait blocks until every in-flight export has released its store or ctx
// is done.
func (l *exportLocks) wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
