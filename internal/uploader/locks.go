// Per-user advisory locks for the ledger read-modify-write cycle.

package uploader

import "sync"

// userLocks hands out one mutex per username. Two concurrent uploads for the
// same user would otherwise both read the same base ledger and the second
// write would drop the first append.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// acquire locks the mutex for username and returns its unlock function.
func (l *userLocks) acquire(username string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[username]
	if !ok {
		m = &sync.Mutex{}
		l.locks[username] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
