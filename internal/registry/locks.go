package registry

import "sync"

// DomainLocks provides per-domain mutual exclusion between the
// verification engine and the health monitor. Locks are created lazily
// and kept for the process lifetime; the map is bounded by the number of
// distinct domains touched.
type DomainLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// NewDomainLocks creates an empty keyed lock set
func NewDomainLocks() *DomainLocks {
	return &DomainLocks{locks: make(map[int]*sync.Mutex)}
}

func (l *DomainLocks) get(domainID int) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[domainID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[domainID] = m
	}
	return m
}

// Lock blocks until the domain's lock is held
func (l *DomainLocks) Lock(domainID int) {
	l.get(domainID).Lock()
}

// TryLock acquires the domain's lock without blocking.
// The health monitor uses this to skip domains with an in-flight
// verification instead of queueing behind it.
func (l *DomainLocks) TryLock(domainID int) bool {
	return l.get(domainID).TryLock()
}

// Unlock releases the domain's lock
func (l *DomainLocks) Unlock(domainID int) {
	l.get(domainID).Unlock()
}
