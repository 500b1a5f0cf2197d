package store

import (
	"context"
	"sync"
)

// MemoryTokenStore holds provider tokens for the lifetime of the process.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]string)}
}

func (s *MemoryTokenStore) Get(_ context.Context, provider string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[normalizeProvider(provider)]
	return token, ok, nil
}

func (s *MemoryTokenStore) Set(_ context.Context, provider, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[normalizeProvider(provider)] = token
	return nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, normalizeProvider(provider))
	return nil
}

func (s *MemoryTokenStore) Close() error { return nil }
