package conversation

import (
	"context"
	"fmt"
	"sync"

	"github.com/hammerheart92/StoryForge-sub000/internal/models"
)

// Store keys conversation state by an explicit session token so that
// concurrent clients never share one mutable buffer. Get fails with
// models.ErrNotFound for unknown tokens.
type Store interface {
	Get(ctx context.Context, token string) (*State, error)
	Put(ctx context.Context, token string, state *State) error
	Delete(ctx context.Context, token string) error
}

// MemoryStore is the in-process Store used when no Redis address is
// configured. Suitable for a single instance only. Like RedisStore, Get and
// Put exchange detached copies: callers never share a mutable State through
// the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*State)}
}

func (s *MemoryStore) Get(_ context.Context, token string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[token]
	if !ok {
		return nil, fmt.Errorf("%w: session %q", models.ErrNotFound, token)
	}
	return state.Clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, token string, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = state.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
