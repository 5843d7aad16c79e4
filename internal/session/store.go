package session

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dhanushraagav/ai-interview-platform/internal/model"
)

// ErrNotFound is returned for unknown and evicted session identifiers. An
// evicted session is indistinguishable from one that never existed.
var ErrNotFound = errors.New("session not found")

// Eviction defaults. Both are configurable on New; zero TTL disables the sweep.
const (
	DefaultTTL           = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// entry pairs a session with its own mutex so operations on the same
// identifier serialize while different identifiers never block each other.
type entry struct {
	mu   sync.Mutex
	sess *model.Session
}

// Store holds all live interview sessions in volatile memory. It promises no
// durability across restarts.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	ttl       time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a store. When ttl > 0 a background sweeper evicts sessions idle
// for longer than ttl, checking every sweepInterval.
func New(ttl, sweepInterval time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	if ttl > 0 {
		if sweepInterval <= 0 {
			sweepInterval = DefaultSweepInterval
		}
		go s.janitor(sweepInterval)
	}
	return s
}

// Close stops the background sweeper. The store remains usable afterwards.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Create registers a new session under its identifier. Identifiers are never
// reused, so a collision is a caller bug.
func (s *Store) Create(sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sess.ID]; exists {
		return errors.New("session id already exists: " + sess.ID)
	}
	s.sessions[sess.ID] = &entry{sess: sess}
	return nil
}

// Get returns a consistent snapshot of a session.
func (s *Store) Get(id string) (*model.Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !s.contains(id, e) {
		return nil, ErrNotFound
	}
	return e.sess.Clone(), nil
}

// Update applies fn to a session under its exclusive lock. The whole mutation
// is atomic with respect to concurrent operations on the same identifier. On
// success the session's idle clock resets and a snapshot of the mutated
// session is returned; when fn fails the session is left untouched except for
// changes fn already made (fn must mutate only after its own checks pass).
func (s *Store) Update(id string, fn func(*model.Session) error) (*model.Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	// The sweeper may have evicted the session between lookup and lock.
	if !s.contains(id, e) {
		return nil, ErrNotFound
	}
	if err := fn(e.sess); err != nil {
		return nil, err
	}
	e.sess.LastActiveAt = time.Now()
	return e.sess.Clone(), nil
}

// Delete removes a session. Subsequent operations see ErrNotFound.
func (s *Store) Delete(id string) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[id] != e {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// ListByOwner returns snapshots of all sessions started by the given caller,
// newest first.
func (s *Store) ListByOwner(owner string) []*model.Session {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var out []*model.Session
	for _, e := range entries {
		e.mu.Lock()
		if e.sess.Owner == owner {
			out = append(out, e.sess.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *Store) contains(id string, e *entry) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id] == e
}

func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

// sweep evicts sessions idle for longer than the TTL. It takes each session's
// exclusive lock before removal so an in-flight Update is never raced;
// sessions busy at sweep time are skipped and picked up on a later pass.
func (s *Store) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		if !e.mu.TryLock() {
			continue
		}
		idle := now.Sub(e.sess.LastActiveAt)
		e.mu.Unlock()
		if idle > s.ttl {
			delete(s.sessions, id)
			slog.Debug("evicted idle session", "session_id", id, "idle", idle)
		}
	}
}
