package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"taxaformer/internal/models"
)

// Entry is one loaded analysis result.
type Entry struct {
	JobID    string
	Result   models.AnalysisResult
	Fallback bool
	LoadedAt time.Time
}

// Store holds dashboard state for one session: the result currently on screen
// and every result loaded so far, keyed by job id.
type Store struct {
	mu      sync.RWMutex
	id      string
	current string
	cache   map[string]Entry
	max     int
	closed  bool
	now     func() time.Time
}

// New creates a store that keeps at most maxEntries results (0 means unbounded).
func New(maxEntries int) *Store {
	return &Store{
		id:    uuid.NewString(),
		cache: make(map[string]Entry),
		max:   maxEntries,
		now:   time.Now,
	}
}

func (s *Store) ID() string {
	return s.id
}

// Put caches a result and makes it current.
func (s *Store) Put(jobID string, res models.AnalysisResult, fallback bool) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := Entry{JobID: jobID, Result: res, Fallback: fallback, LoadedAt: s.now()}
	if s.closed {
		return e
	}
	if _, ok := s.cache[jobID]; !ok && s.max > 0 && len(s.cache) >= s.max {
		s.evictOldestLocked()
	}
	s.cache[jobID] = e
	s.current = jobID
	return e
}

func (s *Store) Get(jobID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cache[jobID]
	return e, ok
}

// Current returns the most recently stored result.
func (s *Store) Current() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == "" {
		return Entry{}, false
	}
	e, ok := s.cache[s.current]
	return e, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Close drops all cached results. Later Puts are ignored.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]Entry)
	s.current = ""
	s.closed = true
	return nil
}

func (s *Store) evictOldestLocked() {
	oldest := ""
	var at time.Time
	for id, e := range s.cache {
		if id == s.current {
			continue
		}
		if oldest == "" || e.LoadedAt.Before(at) {
			oldest, at = id, e.LoadedAt
		}
	}
	if oldest == "" {
		oldest = s.current
	}
	delete(s.cache, oldest)
}
