package asset

import (
	"errors"
	"strings"
	"sync"
	"time"

	"storyboard/server/internal/model"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// Asset is a materialized binary held in memory and served from the
// assets endpoint. Video payloads land here after a single download
// from the provider so a revoked remote link never breaks playback.
type Asset struct {
	ID        string
	Kind      model.MediaKind
	MimeType  string
	Data      []byte
	CreatedAt time.Time
}

type Store struct {
	mu     sync.RWMutex
	assets map[string]Asset
}

func NewStore() *Store {
	return &Store{assets: map[string]Asset{}}
}

// Put stores the payload and returns the finished asset. The caller
// must not reuse the data slice afterwards.
func (s *Store) Put(kind model.MediaKind, mimeType string, data []byte) Asset {
	a := Asset{
		ID:        uuid.NewString(),
		Kind:      kind,
		MimeType:  mimeType,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[a.ID] = a
	return a
}

func (s *Store) Get(id string) (Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[id]
	if !ok {
		return Asset{}, ErrNotFound
	}
	return a, nil
}

// Delete revokes an asset. Existing references to its locator start
// returning not found immediately.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[id]; !ok {
		return ErrNotFound
	}
	delete(s.assets, id)
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}

// Locator is the serving path for a stored asset.
func Locator(id string) string {
	return "/api/v1/assets/" + id
}

// ParseLocator extracts the asset id from a serving path. Inline data
// URIs and foreign paths report false: they have no backing entry.
func ParseLocator(locator string) (string, bool) {
	id, ok := strings.CutPrefix(locator, "/api/v1/assets/")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
