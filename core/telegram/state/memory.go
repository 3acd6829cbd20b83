package state

import "sync"

type userLock struct {
	mu   sync.Mutex
	refs int
}

type memoryManager struct {
	mu      sync.Mutex
	pending map[int64]State

	locksMu sync.Mutex
	locks   map[int64]*userLock
}

// NewMemoryManager constructs an in-memory Manager.
func NewMemoryManager() Manager {
	return &memoryManager{
		pending: make(map[int64]State),
		locks:   make(map[int64]*userLock),
	}
}

func (m *memoryManager) Set(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st == StateIdle || st == "" {
		delete(m.pending, userID)
		return
	}
	m.pending[userID] = st
}

func (m *memoryManager) Get(userID int64) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.pending[userID]
	if !ok {
		return StateIdle, false
	}
	return st, true
}

func (m *memoryManager) Consume(userID int64) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.pending[userID]
	if !ok {
		return StateIdle, false
	}
	delete(m.pending, userID)
	return st, true
}

func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, userID)
}

// Lock hands out one mutex per user. Entries are reference counted and
// removed once nobody holds or waits for them.
func (m *memoryManager) Lock(userID int64) func() {
	m.locksMu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &userLock{}
		m.locks[userID] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			m.locksMu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(m.locks, userID)
			}
			m.locksMu.Unlock()
		})
	}
}

// lockCount reports how many per-user locks are alive.
func (m *memoryManager) lockCount() int {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	return len(m.locks)
}
