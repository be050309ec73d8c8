// Package session keeps uploaded datasets and their schemas in memory between requests.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/concentra-cli/internal/dataset"
	"github.com/KaramelBytes/concentra-cli/internal/logger"
	"github.com/KaramelBytes/concentra-cli/internal/schema"
)

var (
	// ErrNotFound indicates no session exists for the id.
	ErrNotFound = errors.New("session not found")
	// ErrExpired indicates the session existed but outlived its TTL.
	ErrExpired = errors.New("session expired")
)

// Session is one uploaded dataset with its current schema. Values handed out by
// the store are snapshots: mutate them only inside Update.
type Session struct {
	ID        string
	Source    string
	Dataset   *dataset.Dataset
	Schema    schema.Schema
	CreatedAt time.Time
	UpdatedAt time.Time
}

type entry struct {
	mu      sync.Mutex // serializes Update/Replace on this session
	cur     *Session
	expires time.Time
}

// Store is an in-memory session map with idle expiry. Each access extends a
// session's lifetime by the TTL; a zero TTL disables expiry.
type Store struct {
	ttl time.Duration
	log *logger.Logger
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewStore returns an empty store.
func NewStore(ttl time.Duration, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{ttl: ttl, log: log, now: time.Now, sessions: map[string]*entry{}}
}

func (s *Store) expiry(now time.Time) time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(s.ttl)
}

func (e *entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// Create stores a new session and returns it.
func (s *Store) Create(source string, ds *dataset.Dataset, sc schema.Schema) *Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Source:    source,
		Dataset:   ds,
		Schema:    sc.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = &entry{cur: sess, expires: s.expiry(now)}
	n := len(s.sessions)
	s.mu.Unlock()
	s.log.Info("session created", "session_id", sess.ID, "source", source, "rows", ds.Len(), "sessions", n)
	return snapshot(sess)
}

// lookup returns the live entry, removing it first if it has expired.
func (s *Store) lookup(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	now := s.now()
	e.mu.Lock()
	if e.expired(now) {
		e.mu.Unlock()
		s.remove(id, e)
		s.log.Debug("session expired on access", "session_id", id)
		return nil, ErrExpired
	}
	e.expires = s.expiry(now)
	e.mu.Unlock()
	return e, nil
}

func (s *Store) remove(id string, e *entry) {
	s.mu.Lock()
	if cur, ok := s.sessions[id]; ok && cur == e {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
}

// Get returns a snapshot of the session. The snapshot's schema is a private copy.
func (s *Store) Get(id string) (*Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.cur), nil
}

// Replace swaps the dataset and schema of an existing session, keeping its id.
func (s *Store) Replace(id, source string, ds *dataset.Dataset, sc schema.Schema) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	next := *e.cur
	next.Source = source
	next.Dataset = ds
	next.Schema = sc.Clone()
	next.UpdatedAt = s.now()
	e.cur = &next
	s.log.Info("session replaced", "session_id", id, "source", source, "rows", ds.Len())
	return nil
}

// Update runs fn on a working copy of the session while holding the session's
// lock. The copy, including a clone of the dataset, is committed only when fn
// returns nil, so readers never observe a partial update.
func (s *Store) Update(id string, fn func(*Session) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	work := *e.cur
	work.Dataset = e.cur.Dataset.Clone()
	work.Schema = e.cur.Schema.Clone()
	if err := fn(&work); err != nil {
		return err
	}
	work.ID = e.cur.ID
	work.UpdatedAt = s.now()
	e.cur = &work
	return nil
}

// Delete removes the session. Deleting an unknown id returns ErrNotFound.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.log.Info("session deleted", "session_id", id)
	return nil
}

// Sweep drops every session that expired before now and returns how many were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.sessions {
		e.mu.Lock()
		dead := e.expired(now)
		e.mu.Unlock()
		if dead {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.ttl <= 0 {
		<-ctx.Done()
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.log.Info("expired sessions removed", "count", n, "remaining", s.Len())
			}
		}
	}
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func snapshot(sess *Session) *Session {
	cp := *sess
	cp.Schema = sess.Schema.Clone()
	return &cp
}
