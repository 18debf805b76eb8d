package keylock

import "sync"

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// KeyLock provides a mutex per string key. Locks for distinct keys never
// contend; entries are removed once the last holder releases them.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func New() *KeyLock {
	return &KeyLock{
		locks: make(map[string]*lockEntry),
	}
}

// Lock acquires the mutex for key and returns its release function
func (k *KeyLock) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
