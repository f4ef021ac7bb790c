package store

import (
	"errors"
	"sync"
	"time"

	"storyboard/server/internal/model"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")
)

// MemoryStore holds session snapshots. Every write replaces the whole
// value under the lock, so readers always observe a consistent state.
type MemoryStore struct {
	mu sync.RWMutex

	sessions map[string]model.SessionState
	seq      map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string]model.SessionState{},
		seq:      map[string]int64{},
	}
}

func (s *MemoryStore) CreateSession(state model.SessionState) (model.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[state.SessionID]; ok {
		return model.SessionState{}, ErrConflict
	}
	state.UpdatedAt = time.Now().UTC()
	s.sessions[state.SessionID] = state
	s.seq[state.SessionID] = 0
	return state, nil
}

func (s *MemoryStore) GetSession(sessionID string) (model.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[sessionID]
	if !ok {
		return model.SessionState{}, ErrNotFound
	}
	return state, nil
}

// PutSession replaces the stored snapshot wholesale and returns it with
// a fresh UpdatedAt.
func (s *MemoryStore) PutSession(state model.SessionState) (model.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[state.SessionID]; !ok {
		return model.SessionState{}, ErrNotFound
	}
	state.UpdatedAt = time.Now().UTC()
	s.sessions[state.SessionID] = state
	return state, nil
}

// UpdateSession applies a mutation under the lock and stores the
// result. The update function sees a private copy; returning an error
// leaves the stored snapshot untouched.
func (s *MemoryStore) UpdateSession(sessionID string, updateFn func(*model.SessionState) error) (model.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.sessions[sessionID]
	if !ok {
		return model.SessionState{}, ErrNotFound
	}
	if err := updateFn(&state); err != nil {
		return model.SessionState{}, err
	}
	state.UpdatedAt = time.Now().UTC()
	s.sessions[sessionID] = state
	return state, nil
}

// NextSeq hands out the next event sequence number for a session.
func (s *MemoryStore) NextSeq(sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return 0, ErrNotFound
	}
	n := s.seq[sessionID] + 1
	s.seq[sessionID] = n
	return n, nil
}

func (s *MemoryStore) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, sessionID)
	delete(s.seq, sessionID)
	return nil
}
