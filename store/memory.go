// store/memory.go
package store

import (
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// MemoryStore is the in-process Store implementation. A janitor goroutine
// sweeps expired entries; reads never return expired values even before the
// sweep runs.
type MemoryStore struct {
	mutex   sync.RWMutex
	entries map[string]entry
	clock   clockwork.Clock
	stop    chan struct{}
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(clockwork.NewRealClock())
}

func NewMemoryStoreWithClock(clock clockwork.Clock) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]entry),
		clock:   clock,
		stop:    make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Get(key string) (any, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, exists := s.entries[key]
	if !exists {
		return nil, false
	}
	if s.clock.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (s *MemoryStore) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.entries[key] = entry{value: value, expiresAt: s.clock.Now().Add(ttl)}
}

func (s *MemoryStore) Delete(key string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.entries, key)
}

func (s *MemoryStore) DeletePrefix(prefix string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
}

// Close stops the janitor goroutine.
func (s *MemoryStore) Close() {
	close(s.stop)
}

func (s *MemoryStore) janitor() {
	ticker := s.clock.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			now := s.clock.Now()
			s.mutex.Lock()
			for key, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, key)
				}
			}
			s.mutex.Unlock()
		case <-s.stop:
			return
		}
	}
}
