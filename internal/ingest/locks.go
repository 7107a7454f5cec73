package ingest

import (
	"sync"

	"tableingest/internal/ident"
)

// TableLocks serializes work per sanitized table name. Ingest itself takes no
// locks; callers that may ingest the same name concurrently (the server, the
// CLI with several inputs) hold the name's lock around the call.
//
// The zero value is ready to use.
type TableLocks struct {
	mu    sync.Mutex
	locks map[ident.Identifier]*tableLock
}

type tableLock struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until the lock for name is held and returns the function that
// releases it. name is sanitized first, so "users.csv" and "users" share a
// lock.
func (l *TableLocks) Lock(name string) (unlock func()) {
	id := ident.Sanitize(name)

	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[ident.Identifier]*tableLock)
	}
	tl, ok := l.locks[id]
	if !ok {
		tl = &tableLock{}
		l.locks[id] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			tl.mu.Unlock()

			l.mu.Lock()
			tl.refs--
			if tl.refs == 0 {
				delete(l.locks, id)
			}
			l.mu.Unlock()
		})
	}
}
